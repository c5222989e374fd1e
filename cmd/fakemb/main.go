// Command fakemb serves an in-memory mountebank admin API for local
// development and CI runs that cannot start mb.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mountebank-client/logging"
	"mountebank-client/services/providers/fakemb"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port      int
		logLevel  string
		logFormat string
	)
	cmd := &cobra.Command{
		Use:           "fakemb",
		Short:         "Serve an in-memory mountebank admin API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.FromStrings(logLevel, logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			addr := fmt.Sprintf(":%d", port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           fakemb.New(logger),
				ReadHeaderTimeout: 5 * time.Second,
			}
			logger.Info("fakemb listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("fakemb server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 2525, "admin API port")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	return cmd
}
