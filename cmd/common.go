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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/valpere/linguabridge/internal/config"
	"github.com/valpere/linguabridge/internal/detector"
	"github.com/valpere/linguabridge/internal/generator"
	"github.com/valpere/linguabridge/internal/refiner"
	"github.com/valpere/linguabridge/internal/server"
	"github.com/valpere/linguabridge/internal/service"
	"github.com/valpere/linguabridge/internal/validator"
)

// BuildService constructs the translation service and its logger from
// the settings in vp.
func BuildService(vp *viper.Viper) (*service.Service, config.Config, *slog.Logger, error) {
	cfg, err := config.Load(vp)
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	base := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	logger := slog.New(server.NewLogHandler(base.Handler()))

	gen, err := generator.New(cfg.Provider, cfg.BaseURL)
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("failed to create generator: %w", err)
	}

	credential := config.CredentialSource(vp, cfg.Provider)
	opts := []service.Option{service.WithLogger(logger)}

	// The detector is shared; building lingua models is the expensive part.
	det := detector.New()
	opts = append(opts, service.WithDetector(det))
	if cfg.Validate {
		opts = append(opts, service.WithValidator(validator.New(det)))
	}

	if cfg.Refine {
		genCfg := func() generator.Config {
			return generator.Config{APIKey: credential(), Model: cfg.Model}
		}
		opts = append(opts, service.WithRefiner(refiner.NewLocalizationRefiner(gen, genCfg, cfg.CallTimeout, logger)))
	}

	svc := service.New(gen, credential, cfg.ServiceConfig(), opts...)

	logger.Debug("service configured",
		slog.String("provider", gen.Name()),
		slog.String("model", cfg.Model),
		slog.Bool("refine", cfg.Refine),
		slog.Bool("validate", cfg.Validate))

	return svc, cfg, logger, nil
}
