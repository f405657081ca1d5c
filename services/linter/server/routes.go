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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RegisterRoutes registers the linter endpoints with the router.
//
// Description:
//
//	Sets up all HTTP routes for the linter service under /linter.
//
// Inputs:
//
//	rg - Router group to register routes under (e.g., /v1).
//	handlers - The handlers instance.
//	rl - Middleware applied to the execute endpoint only; may be nil.
//
// Endpoints:
//
//	POST /linter/execute   - Run detection programs against one file
//	GET  /linter/languages - List known languages and AST support
//	GET  /linter/health    - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, rl gin.HandlerFunc) {
	linter := rg.Group("/linter")
	{
		if rl != nil {
			linter.POST("/execute", rl, handlers.HandleExecute)
		} else {
			linter.POST("/execute", handlers.HandleExecute)
		}
		linter.GET("/languages", handlers.HandleLanguages)
		linter.GET("/health", handlers.HandleHealth)
	}
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// ServiceName names the otelgin spans.
	ServiceName string

	// RateLimit is requests per second on /execute; 0 disables it.
	RateLimit float64
	RateBurst int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// Metrics is mounted at GET /metrics when non-nil.
	Metrics http.Handler

	Logger *slog.Logger
}

// NewRouter builds the gin engine serving the linter API.
func NewRouter(cfg RouterConfig, handlers *Handlers) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "packmind-linter"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2*MaxFileContentBytes + MaxProgramsPerRequest*4*1024
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(RequestIDMiddleware())
	router.Use(AccessLogMiddleware(logger))
	router.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers, RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, logger))

	return router
}
