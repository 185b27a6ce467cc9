package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/homenav/internal/app"
	"github.com/MrSnakeDoc/homenav/internal/config"
	"github.com/MrSnakeDoc/homenav/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("❌ homenav: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	serve := func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return a.Run()
	}

	root := &cobra.Command{
		Use:   "homenav",
		Short: "Home server service navigator",
		Long: `homenav discovers the services running on this host (systemd units and
listening sockets), keeps them in an editable catalog and serves it over HTTP.

Every flag can also be set through its HOMENAV_* environment variable.`,
		SilenceUsage: true,
		RunE:         serve,
	}
	cfg.BindFlags(root.Flags())

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  serve,
	}
	cfg.BindFlags(serveCmd.Flags())

	root.AddCommand(serveCmd, newSystemdCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "homenav %s (commit=%s, built=%s, go=%s)\n",
				version.Version, version.Commit, version.BuildDate, version.GoVersion)
		},
	})
	root.SetContext(context.Background())
	return root
}
