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
	"github.com/go-playground/validator/v10"

	"github.com/PackmindHub/packmind-linter/services/linter/execution"
	"github.com/PackmindHub/packmind-linter/services/linter/language"
)

const (
	// MaxFileContentBytes bounds the file content of one request.
	MaxFileContentBytes = 5 * 1024 * 1024

	// MaxProgramCodeBytes bounds the source of one detection program.
	MaxProgramCodeBytes = 256 * 1024

	// MaxProgramsPerRequest bounds the programs of one request.
	MaxProgramsPerRequest = 500
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("language", validateLanguage)
}

// validateLanguage accepts anything language.Parse understands.
func validateLanguage(fl validator.FieldLevel) bool {
	_, err := language.Parse(fl.Field().String())
	return err == nil
}

// ProgramRequest is one detection program of an ExecuteRequest.
type ProgramRequest struct {
	StandardSlug    string `json:"standardSlug" validate:"required"`
	RuleContent     string `json:"ruleContent" validate:"required"`
	Code            string `json:"code" validate:"required,max=262144"`
	SourceCodeState string `json:"sourceCodeState" validate:"required,oneof=AST RAW"`
	Language        string `json:"language" validate:"required"`
	Severity        string `json:"severity,omitempty" validate:"omitempty,oneof=ERROR WARNING"`
}

// ExecuteRequest is the body of POST /v1/linter/execute.
type ExecuteRequest struct {
	FilePath    string           `json:"filePath" validate:"required"`
	FileContent string           `json:"fileContent" validate:"max=5242880"`
	Language    string           `json:"language" validate:"required,language"`
	Programs    []ProgramRequest `json:"programs" validate:"max=500,dive"`
}

// Validate checks the request against its validation tags.
func (r *ExecuteRequest) Validate() error {
	return validate.Struct(r)
}

// Command converts a validated request. Languages are normalised. A program
// language that does not parse is kept as sent, so the executor's language
// filter skips that program instead of failing the request.
func (r *ExecuteRequest) Command() execution.Command {
	lang, _ := language.Parse(r.Language)
	cmd := execution.Command{
		FilePath:    r.FilePath,
		FileContent: r.FileContent,
		Language:    lang,
		Programs:    make([]execution.Program, 0, len(r.Programs)),
	}
	for _, p := range r.Programs {
		pl, err := language.Parse(p.Language)
		if err != nil {
			pl = language.Language(p.Language)
		}
		cmd.Programs = append(cmd.Programs, execution.Program{
			StandardSlug:    p.StandardSlug,
			RuleContent:     p.RuleContent,
			Code:            p.Code,
			SourceCodeState: execution.SourceCodeState(p.SourceCodeState),
			Language:        pl,
			Severity:        execution.Severity(p.Severity),
		})
	}
	return cmd
}

// ExecuteResponse is the result of POST /v1/linter/execute.
type ExecuteResponse struct {
	RequestID string `json:"requestId"`
	execution.Result
}

// LanguageInfo describes one language for GET /v1/linter/languages.
type LanguageInfo struct {
	Language     language.Language `json:"language"`
	DisplayName  string            `json:"displayName"`
	Extensions   []string          `json:"extensions"`
	ASTSupported bool              `json:"astSupported"`
}

// LanguagesResponse lists the known languages.
type LanguagesResponse struct {
	Languages []LanguageInfo `json:"languages"`
}

// HealthResponse is the body of GET /v1/linter/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
