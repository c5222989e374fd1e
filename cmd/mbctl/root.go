package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mountebank-client/clients/mountebank"
	"mountebank-client/clients/transport"
	"mountebank-client/framework"
	"mountebank-client/logging"
)

type options struct {
	configPath string
	url        string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "mbctl",
		Short:         "Manage mountebank imposters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "framework config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.url, "url", transport.DefaultBaseURL, "mountebank admin API base URL")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCreateCmd(opts),
		newGetCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newDeleteAllCmd(opts),
	)
	return cmd
}

// client builds a mountebank client from --config when given, otherwise
// from --url. The returned function releases what the client holds.
func (o *options) client(cmd *cobra.Command) (*mountebank.Client, func(), error) {
	if o.configPath != "" {
		f, err := framework.NewFramework(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		return f.Client, func() { _ = f.Close() }, nil
	}

	logger, err := logging.FromStrings(o.logLevel, "text", cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	t := transport.NewHTTPTransport(o.url, transport.WithLogger(logger))
	return mountebank.New(t, mountebank.WithLogger(logger)), func() {}, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
