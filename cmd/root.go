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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/goatx/apigen/internal/config"
)

var logger = slog.Default()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "apigen",
	Short: "Generate TypeScript API clients from OpenAPI documents",
	Long: `apigen reads OpenAPI 3 documents (JSON or YAML) and writes a TypeScript types file
and one client class per operation tag for each document.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return err
		}
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the file named by --config, or apigen.yaml when it exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.LoadOptional(config.DefaultFile)
	}
	return config.Load(path)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log skipped operations and other details")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default "+config.DefaultFile+" when present)")
}
