package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-auth/application"
	"github.com/spf13/cobra"
)

const envPrefix = "AUTH"

// keys containing underscores need explicit env binding
var envKeys = []string{
	"token.access.secret",
	"token.refresh.secret",
	"session.single_session",
	"database.auto_migrate",
	"server.shutdown_timeout",
}

func newRootCmd() *cobra.Command {
	flags := &application.AppFlags{}
	root := &cobra.Command{
		Use:           "authd",
		Short:         "Token based authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.Bind(root.PersistentFlags(), "./configs")

	root.AddCommand(newServeCmd(flags), newHealthcheckCmd(flags))
	return root
}

func newApp(flags *application.AppFlags) *application.Application {
	return application.New(
		application.WithConfigPath(flags.ConfigDir),
		application.WithEnvPrefix(envPrefix, envKeys...),
		application.WithFlags(flags),
	)
}

func newServeCmd(flags *application.AppFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newApp(flags).Run(cmd.Context())
		},
	}
}

func newHealthcheckCmd(flags *application.AppFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check every dependency once and exit non-zero when unhealthy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := newApp(flags).CheckHealth(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !resp.IsHealthy() {
				return fmt.Errorf("unhealthy: %s", resp.Status)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall deadline")
	return cmd
}
