// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/language"
	"github.com/PackmindHub/packmind-linter/services/linter/telemetry"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.1.0"

// Executor runs detection programs for one file.
type Executor interface {
	Execute(ctx context.Context, cmd execution.Command) execution.Result
}

// ASTSupport reports which languages can be parsed.
type ASTSupport interface {
	IsLanguageSupported(lang language.Language) bool
}

// Handlers contains the HTTP handlers of the linter API.
type Handlers struct {
	executor Executor
	ast      ASTSupport
	logger   *slog.Logger
}

// NewHandlers creates handlers. ast may be nil, in which case no language
// is reported as AST-capable.
func NewHandlers(executor Executor, ast ASTSupport, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{executor: executor, ast: ast, logger: logger}
}

// HandleExecute handles POST /v1/linter/execute.
//
// Description:
//
//	Runs the request's detection programs against the file content.
//	Program failures never fail the request; they show up in the stats.
//
// Request Body:
//
//	ExecuteRequest
//
// Response:
//
//	200 OK: ExecuteResponse
//	400 Bad Request: Malformed or invalid body
//	413 Request Entity Too Large: Body over the configured limit
func (h *Handlers) HandleExecute(c *gin.Context) {
	requestID := RequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), h.logger).With(
		slog.String("request_id", requestID),
		slog.String("handler", "HandleExecute"))

	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "Request body too large",
				Code:  "BODY_TOO_LARGE",
			})
			return
		}
		logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		logger.Warn("Request validation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Request validation failed",
			Code:    "VALIDATION_FAILED",
			Details: err.Error(),
		})
		return
	}

	cmd := req.Command()
	result := h.executor.Execute(c.Request.Context(), cmd)

	logger.Info("Executed detection programs",
		slog.String("file", cmd.FilePath),
		slog.String("language", string(cmd.Language)),
		slog.Int("programs", len(cmd.Programs)),
		slog.Int("violations", len(result.Violations)),
		slog.Int("failed", result.Stats.Failed()))

	c.JSON(http.StatusOK, ExecuteResponse{RequestID: requestID, Result: result})
}

// HandleLanguages handles GET /v1/linter/languages.
func (h *Handlers) HandleLanguages(c *gin.Context) {
	infos := language.All()
	resp := LanguagesResponse{Languages: make([]LanguageInfo, 0, len(infos))}
	for _, info := range infos {
		resp.Languages = append(resp.Languages, LanguageInfo{
			Language:     info.Language,
			DisplayName:  info.DisplayName,
			Extensions:   info.Extensions,
			ASTSupported: h.ast != nil && h.ast.IsLanguageSupported(info.Language),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/linter/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}
