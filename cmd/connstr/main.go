/*
Copyright 2026-Present Couchbase, Inc.

Use of this software is governed by the Business Source License included in
the file licenses/BSL-Couchbase.txt.  As of the Change Date specified in that
file, in accordance with the Business Source License, use of this software will
be governed by the Apache License, Version 2.0, included in the file
licenses/APL2.txt.
*/

package main

import (
	"os"
	"strings"

	"github.com/couchbase/stellar-connstr/pkg/app_config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "connstr",
	Short: "Parses, builds and watches database connection descriptors",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			err := viper.ReadInConfig()
			if err != nil {
				return errors.Wrap(err, "failed to load specified config file")
			}
		}

		_, logger = app_config.NewLogger(viper.GetString("log-level"))
		return nil
	},
}

var cfgFile string
var logger = zap.NewNop()

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "specifies a config file to load")
	rootCmd.PersistentFlags().String("log-level", "warn", "the log level to run at")

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("connstr")
	viper.AutomaticEnv()

	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(parseCmd, formatCmd, watchCmd)
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}

	_ = logger.Sync()
}
