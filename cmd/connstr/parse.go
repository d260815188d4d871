package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"github.com/couchbase/stellar-connstr/pkg/webapi"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var parseCmd = &cobra.Command{
	Use:   "parse [connection-string]",
	Short: "Parses a connection string and prints its contents",
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		connStr := viper.GetString("connection-string")
		if len(args) > 0 {
			connStr = args[0]
		}

		return runParse(cmd.OutOrStdout(), logger, connStr, viper.GetBool("canonical"))
	},
}

func init() {
	parseCmd.Flags().String("connection-string", "", "the connection string to parse, when not given as an argument")
	parseCmd.Flags().Bool("canonical", false, "print the canonical connection string instead of JSON")

	_ = viper.BindPFlags(parseCmd.Flags())
}

func runParse(out io.Writer, logger *zap.Logger, connStr string, canonical bool) error {
	d, report, err := mongoconnstr.ParseWithReport(connStr)
	if err != nil {
		return errors.Wrap(err, "failed to parse connection string")
	}

	if !report.Empty() {
		logger.Warn("connection string contained skipped items",
			zap.Strings("droppedSegments", report.DroppedSegments),
			zap.Strings("droppedHosts", report.DroppedHosts),
			zap.Strings("overwritten", report.Overwritten))
	}

	if canonical {
		_, err = fmt.Fprintln(out, d.ConnectionString())
		return err
	}

	body, err := json.MarshalIndent(webapi.NewDescriptorJson(d), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal descriptor")
	}

	_, err = fmt.Fprintln(out, string(body))
	return err
}
