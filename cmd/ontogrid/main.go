// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command ontogrid browses, filters, sorts and exports tabular data from
// files, Delta Sharing tables and GraphQL endpoints.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/magpierre/ontogrid/internal/config"
)

var (
	// Global flags
	verbose bool
	cfgPath string
	locale  string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ontogrid",
	Short: "Sort, filter and export tabular data",
	Long: `ontogrid shows tabular data in a sortable, filterable grid and exports
the visible rows.

Rows come from CSV, JSON and Parquet files, Delta Sharing tables or GraphQL
query results. Use "view" for the desktop browser, or "export" and "query" to
run the same filter and sort pipeline headless.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		v := config.New(cfgPath)
		if err := v.BindPFlag("locale", cmd.Flags().Lookup("locale")); err != nil {
			return err
		}
		cfg, err = config.Read(v, cfgPath != "")
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded", zap.String("file", v.ConfigFileUsed()), zap.String("locale", cfg.Locale))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: ./ontogrid.yaml or ~/.config/ontogrid/ontogrid.yaml)")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "en", "Collation locale for string sorting (BCP 47 tag)")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(queryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
