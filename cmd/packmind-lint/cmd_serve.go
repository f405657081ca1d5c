// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/PackmindHub/packmind-linter/services/linter/server"
	"github.com/PackmindHub/packmind-linter/services/linter/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detection-program executor over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if port == 0 {
				port = a.cfg.Server.Port
			}
			if debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			shutdown := a.initTelemetry(ctx)
			defer shutdown()

			parser := a.newParser()
			handlers := server.NewHandlers(a.newExecutor(parser), parser, a.logger)
			router := server.NewRouter(server.RouterConfig{
				ServiceName: a.cfg.Telemetry.ServiceName,
				RateLimit:   a.cfg.Server.RateLimit,
				RateBurst:   a.cfg.Server.RateBurst,
				Metrics:     telemetry.MetricsHandler(),
				Logger:      a.logger,
			}, handlers)

			fmt.Fprintf(a.stderr, "Listening on :%d (POST /v1/linter/execute)\n", port)
			return server.New(fmt.Sprintf(":%d", port), router, a.logger).Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from linter.yaml)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable gin debug mode")
	return cmd
}
