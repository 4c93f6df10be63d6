package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/httpebble/internal/admin"
	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/bridge"
	"github.com/danmuck/httpebble/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "httpebble",
		Short: "Bridge Pebble AppMessages to HTTP, location, time and cookies",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
			if opts.verbose {
				logging.SetLevel(zerolog.DebugLevel)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		serveCmd(opts),
		dispatchCmd(opts),
		identityCmd(opts),
		versionCmd(),
	)
	return root
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP surface in front of a bridge router",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Admin.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			router := bridge.NewRouter(cfg.Bridge)
			logging.Infof("httpebble.serve identity=%s strict_commands=%v", router.Identity(), cfg.Bridge.StrictCommands)
			return admin.New(cfg.Admin, router).Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override admin_addr")
	return cmd
}

func dispatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <hex-appmessage>",
		Short: "Decode one AppMessage, route it and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			payload, err := hex.DecodeString(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("decode hex payload: %w", err)
			}
			msg, err := appmessage.Decode(payload)
			if err != nil {
				return err
			}
			out, err := bridge.NewRouter(cfg.Bridge).Process(cmd.Context(), msg)
			if err != nil {
				return err
			}
			return printReply(cmd.OutOrStdout(), out)
		},
	}
}

func identityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identity [device-id]",
		Short: "Print the X-Pebble-ID derived from a device id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 1 {
				raw = strings.TrimSpace(args[0])
			} else {
				cfg, err := loadConfig(opts.configPath)
				if err != nil {
					return err
				}
				raw = cfg.Bridge.DeviceID
			}
			fmt.Fprintln(cmd.OutOrStdout(), bridge.DeriveIdentity(raw).Header())
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// printReply writes the encoded reply as hex followed by one line per tuple.
func printReply(w io.Writer, out *appmessage.Dictionary) error {
	if out == nil {
		_, err := fmt.Fprintln(w, "no output")
		return err
	}
	encoded, err := appmessage.Encode(*out)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, hex.EncodeToString(encoded)); err != nil {
		return err
	}
	for _, t := range out.Tuples() {
		if _, err := fmt.Fprintf(w, "  %s: %s\n", bridge.KeyName(t.Key), t.Describe()); err != nil {
			return err
		}
	}
	return nil
}
