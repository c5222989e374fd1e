package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mountebank-client/clients/mountebank"
	"mountebank-client/models"
)

func parsePort(arg string) (int, error) {
	port, err := strconv.Atoi(arg)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", arg)
	}
	return port, nil
}

// readImposterFile loads an imposter definition from a .json, .yaml or .yml file.
func readImposterFile(path string) (*models.Imposter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("failed to convert %s to JSON: %w", path, err)
		}
	case ".json":
	default:
		return nil, fmt.Errorf("unsupported file type %q, want .json, .yaml or .yml", filepath.Ext(path))
	}

	imp, err := models.ParseImposter(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return imp, nil
}

func newCreateCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an imposter from a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			imp, err := readImposterFile(file)
			if err != nil {
				return err
			}
			client, done, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer done()

			created, err := client.CreateImposter(cmd.Context(), imp)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "imposter definition (.json, .yaml, .yml)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	var replayable bool
	cmd := &cobra.Command{
		Use:   "get <port>",
		Short: "Show an imposter and its recorded requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[0])
			if err != nil {
				return err
			}
			client, done, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer done()

			if replayable {
				imp, err := client.GetReplayableImposter(cmd.Context(), port)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), imp)
			}
			snapshot, err := mountebank.GetImposter[models.RawRequest](cmd.Context(), client, port)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snapshot)
		},
	}
	cmd.Flags().BoolVar(&replayable, "replayable", false, "print the definition without recorded requests")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imposters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, done, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer done()

			list, err := client.ListImposters(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <port>",
		Short: "Delete an imposter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[0])
			if err != nil {
				return err
			}
			client, done, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := client.DeleteImposter(cmd.Context(), port); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted imposter on port %d\n", port)
			return nil
		},
	}
}

func newDeleteAllCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every imposter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, done, err := opts.client(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := client.DeleteAllImposters(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted all imposters")
			return nil
		},
	}
}
