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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/linguabridge/internal"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text once and print the result as JSON",
	Long: `Translate text with the configured model and print
{"translation", "idioms", "description"} as JSON.

The text is taken from the argument, from --input, or from stdin.
Use --from auto to detect the source language.`,
	Example: `  linguabridge translate --from it --to es "Ciao mondo"
  linguabridge translate --from auto --to it -i note.txt -o note.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		text, err := readText(cmd, args)
		if err != nil {
			return err
		}

		svc, _, _, err := BuildService(v)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := svc.Translate(ctx, internal.TranslationRequest{
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		out = append(out, '\n')

		if outputFile == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(outputFile, out, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	},
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case inputFile != "":
		b, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	default:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the JSON result to this file instead of stdout")
	translateCmd.Flags().StringVarP(&sourceLang, "from", "s", "auto", "Source language (key, code or name; auto to detect)")
	translateCmd.Flags().StringVarP(&targetLang, "to", "t", "", "Target language (required)")

	translateCmd.MarkFlagRequired("to")
}
