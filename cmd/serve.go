/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/valpere/linguabridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Endpoints:
  POST /api/translate   {"text", "sourceLang", "targetLang"}
  GET  /api/languages   supported languages
  GET  /healthz         liveness`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, logger, err := BuildService(v)
		if err != nil {
			return err
		}

		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("starting server", slog.String("provider", cfg.Provider))
		return server.New(svc, logger).Run(ctx, cfg.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":3000", "Address to listen on")
	serveCmd.Flags().Int("max-idioms", 2, "Maximum idioms returned (0 = no limit)")
	serveCmd.Flags().Int("max-text-length", 5000, "Maximum text length in characters (0 = no limit)")

	_ = v.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	_ = v.BindPFlag("max_idioms", serveCmd.Flags().Lookup("max-idioms"))
	_ = v.BindPFlag("max_text_length", serveCmd.Flags().Lookup("max-text-length"))
}
