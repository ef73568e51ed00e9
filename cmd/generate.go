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
	"github.com/spf13/cobra"

	"github.com/goatx/apigen/internal/config"
	"github.com/goatx/apigen/internal/format"
	"github.com/goatx/apigen/internal/tsgen"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate TypeScript types and clients",
	Long: `Scan the input directory for OpenAPI documents and write <output>/<Name>/<Name>.types.ts
plus one <Name><Tag>.api.ts client per tag. Flags override values from the config file.
Formatting commands run afterwards; their failures are reported but never fatal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyGenerateFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		runner := &format.Runner{Commands: cfg.Format.Commands, Logger: logger}
		opts := cfg.GenerateOptions(runner)
		opts.Logger = logger
		return tsgen.Generate(cmd.Context(), opts)
	},
}

func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("input") {
		v, err := flags.GetString("input")
		if err != nil {
			return err
		}
		cfg.Input = v
	}
	if flags.Changed("output") {
		v, err := flags.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = v
	}
	if flags.Changed("naming-fallback") {
		v, err := flags.GetString("naming-fallback")
		if err != nil {
			return err
		}
		cfg.Naming.Fallback = tsgen.NamingFallback(v)
	}
	if flags.Changed("http-module") {
		v, err := flags.GetString("http-module")
		if err != nil {
			return err
		}
		cfg.Client.HTTPModule = v
	}
	skip, err := flags.GetBool("skip-format")
	if err != nil {
		return err
	}
	if skip {
		cfg.Format.Enabled = false
	}
	return nil
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringP("input", "i", "", "directory holding the OpenAPI documents")
	generateCmd.Flags().StringP("output", "o", "", "directory receiving the generated files")
	generateCmd.Flags().String("naming-fallback", "", "name operations without a summary: method-path or unnamed")
	generateCmd.Flags().String("http-module", "", "module the clients import request from")
	generateCmd.Flags().Bool("skip-format", false, "do not run the formatting commands")
}
