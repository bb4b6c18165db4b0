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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var translateDetect bool

var translateCmd = &cobra.Command{
	Use:   "translate <text...>",
	Short: "Translate text to English",
	Long: `Translate text to English with the configured provider, exactly as the
translation-assisted search stage does.

Available providers (translator.provider):
  - gemini      Gemini API (requires gemini.api_key / GEMINI_API_KEY)
  - google      Google Cloud Translation (application default or google.credentials)
  - ollama      Ollama LLM (self-hosted, ollama.url)
  - openrouter  OpenRouter free models (requires openrouter.api_key / OPENROUTER_API_KEY)
  - mymemory    MyMemory (free, source language detected locally)
  - systran     SYSTRAN via RapidAPI (requires systran.api_key / SYSTRAN_API_KEY)`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		text := strings.Join(args, " ")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if translateDetect {
			if code, ok := a.detector().Detect(text); ok {
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", code)
			}
		}

		tr, err := a.buildTranslator(ctx)
		if err != nil {
			return err
		}

		translation, err := tr.Translate(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), translation)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().BoolVar(&translateDetect, "detect", false, "Also print the detected source language")
}
