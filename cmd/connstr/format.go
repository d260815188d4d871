package main

import (
	"fmt"
	"strings"

	"github.com/couchbase/stellar-connstr/contrib/mongoconnstr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Builds a connection string from individual settings",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		extra, err := cmd.Flags().GetStringArray("set")
		if err != nil {
			return err
		}

		opts := formatOptions{
			Hosts:    viper.GetStringSlice("host"),
			UserID:   viper.GetString("user-id"),
			Password: viper.GetString("password"),
			Extra:    extra,
		}
		if viper.IsSet("slave-ok") {
			slaveOk := viper.GetBool("slave-ok")
			opts.SlaveOk = &slaveOk
		}

		d, err := buildDescriptor(opts)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), d.ConnectionString())
		return err
	},
}

func init() {
	formatCmd.Flags().StringSlice("host", nil, "a host[:port] endpoint, may be repeated")
	formatCmd.Flags().String("user-id", "", "the user id")
	formatCmd.Flags().String("password", "", "the password")
	formatCmd.Flags().Bool("slave-ok", false, "whether reads from secondaries are allowed")
	formatCmd.Flags().StringArray("set", nil, "an additional Keyword=Value pair, may be repeated")

	_ = viper.BindPFlag("host", formatCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("user-id", formatCmd.Flags().Lookup("user-id"))
	_ = viper.BindPFlag("password", formatCmd.Flags().Lookup("password"))
	_ = viper.BindPFlag("slave-ok", formatCmd.Flags().Lookup("slave-ok"))
}

type formatOptions struct {
	Hosts    []string
	UserID   string
	Password string
	SlaveOk  *bool
	Extra    []string
}

func buildDescriptor(opts formatOptions) (*mongoconnstr.Descriptor, error) {
	d := mongoconnstr.New()

	hosts := d.EnsureHost()
	for _, host := range opts.Hosts {
		parsed, err := mongoconnstr.ParseHostList(host)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid host %q", host)
		}
		for _, endpoint := range parsed.Endpoints() {
			hosts.Add(endpoint)
		}
	}

	if opts.SlaveOk != nil {
		d.SetSlaveOk(*opts.SlaveOk)
	}
	if opts.UserID != "" {
		d.SetUserID(opts.UserID)
	}
	if opts.Password != "" {
		d.SetPassword(opts.Password)
	}

	for _, kv := range opts.Extra {
		keyword, value, ok := strings.Cut(kv, "=")
		keyword = strings.TrimSpace(keyword)
		if !ok || keyword == "" {
			return nil, errors.Errorf("invalid keyword setting %q, expected Keyword=Value", kv)
		}

		err := d.SetString(keyword, strings.TrimSpace(value))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid value for %q", keyword)
		}
	}

	return d, nil
}
