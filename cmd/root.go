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
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/linguabridge/internal/config"
)

var version = "0.1.0"

var (
	cfgFile string
	v       = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "linguabridge",
	Short: "LLM-backed translator with idiom notes",
	Long: `A translation service that asks a generative model for a translation,
the idioms it contains and a short description, then localizes the
description into the target language.

Credential: GEMINI_API_KEY (or NEXT_PUBLIC_GEMINI_API_KEY), shared by
every provider that needs a key. OPENROUTER_API_KEY takes precedence
for --provider openrouter. Ollama needs no key.
Other settings: flags, LINGUABRIDGE_* environment variables or --config.

Use "linguabridge serve" to start the HTTP API.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.ReadFile(v, cfgFile)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (yaml, json or toml)")
	pf.String("provider", "gemini", "Model provider: gemini, ollama or openrouter")
	pf.String("model", "", "Model name (provider default if empty)")
	pf.String("base-url", "", "Override the provider endpoint")
	pf.Duration("call-timeout", 30*time.Second, "Timeout for each model call")
	pf.Int("max-attempts", 3, "Total attempts per model call including the first (1 = no retries)")
	pf.Bool("refine", true, "Localize the description with a second model call")
	pf.Bool("validate", false, "Log a warning when the translation is not in the target language")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "text", "Log format: text or json")

	bindFlag("provider", "provider")
	bindFlag("model", "model")
	bindFlag("base_url", "base-url")
	bindFlag("call_timeout", "call-timeout")
	bindFlag("max_attempts", "max-attempts")
	bindFlag("refine", "refine")
	bindFlag("validate", "validate")
	bindFlag("log_level", "log-level")
	bindFlag("log_format", "log-format")
}

// bindFlag ties a persistent flag to a viper key. viper only prefers a
// flag over env and file when it was set explicitly.
func bindFlag(key, flag string) {
	_ = v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
}
