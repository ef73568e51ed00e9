/*
Copyright © 2025 Honoka Toda, Shinya Ishitobi

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

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/goatx/apigen/internal/openapi"
	"github.com/goatx/apigen/internal/tsgen"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <document>",
	Short: "Print the declarations and operations extracted from a document",
	Long: `Load one OpenAPI document and print, as JSON, the type declarations in emit order and the
operations grouped by tag. Nothing is written to disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("naming-fallback") {
			v, err := cmd.Flags().GetString("naming-fallback")
			if err != nil {
				return err
			}
			cfg.Naming.Fallback = tsgen.NamingFallback(v)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		doc, err := openapi.Load(args[0], openapi.WithLogger(logger))
		if err != nil {
			return err
		}
		result, err := tsgen.Build(tsgen.BaseName(args[0]), doc, tsgen.BuildOptions{
			NamingFallback: cfg.Naming.Fallback,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().String("naming-fallback", "", "name operations without a summary: method-path or unnamed")
}
