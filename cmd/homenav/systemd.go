package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/homenav/internal/hostexec"
	"github.com/MrSnakeDoc/homenav/internal/installer"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

func newSystemdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "systemd",
		Short: "Manage the homenav systemd unit",
	}
	cmd.AddCommand(newInstallCmd(), newUninstallCmd())
	return cmd
}

func newInstaller() *installer.Installer {
	return installer.New(hostexec.ExecRunner{}, logger.New("info", true))
}

func newInstallCmd() *cobra.Command {
	opts := installer.InstallOptions{
		InstallPath: installer.DefaultInstallPath,
		UnitPath:    installer.DefaultUnitPath,
		EnvPath:     installer.DefaultEnvPath,
		DataDir:     installer.DefaultDataDir,
		Host:        "0.0.0.0",
		Port:        8080,
		DefaultHost: "localhost",
	}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the binary, env file and unit, then enable and start it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := newInstaller().Install(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.NoEnable {
				fmt.Fprintf(out, "Installed: %s\nEnable/start: sudo systemctl enable --now %s\n", unit, unit)
				return nil
			}
			fmt.Fprintf(out, "Installed and started: %s\n", unit)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.InstallPath, "install-path", opts.InstallPath, "where to install the binary")
	f.StringVar(&opts.UnitPath, "unit-path", opts.UnitPath, "systemd unit file path")
	f.StringVar(&opts.EnvPath, "env-path", opts.EnvPath, "environment file path")
	f.StringVar(&opts.DataDir, "data-dir", opts.DataDir, "data directory (defaults the data file)")
	f.StringVar(&opts.DataFile, "data-file", "", "catalog file path (default <data-dir>/services.json)")
	f.StringVar(&opts.Host, "host", opts.Host, "listen host written to the env file")
	f.IntVar(&opts.Port, "port", opts.Port, "listen port written to the env file")
	f.StringVar(&opts.DefaultHost, "default-host", opts.DefaultHost, "host used to build service URLs")
	f.StringArrayVar(&opts.ExtraEnv, "env", nil, "extra KEY=value line for the env file (repeatable)")
	f.BoolVar(&opts.NoEnable, "no-enable", false, "do not enable/start the unit")
	return cmd
}

func newUninstallCmd() *cobra.Command {
	opts := installer.UninstallOptions{
		UnitPath:    installer.DefaultUnitPath,
		EnvPath:     installer.DefaultEnvPath,
		InstallPath: installer.DefaultInstallPath,
		DataDir:     installer.DefaultDataDir,
	}

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the unit (binary and data are kept by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := newInstaller().Uninstall(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled: %s\n", unit)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.UnitPath, "unit-path", opts.UnitPath, "systemd unit file path")
	f.StringVar(&opts.EnvPath, "env-path", opts.EnvPath, "environment file path")
	f.StringVar(&opts.InstallPath, "install-path", opts.InstallPath, "where the binary was installed")
	f.BoolVar(&opts.RemoveBinary, "remove-binary", false, "remove the installed binary")
	f.BoolVar(&opts.RemoveData, "remove-data", false, "remove the data directory (DANGEROUS)")
	f.StringVar(&opts.DataDir, "data-dir", opts.DataDir, "data directory removed by --remove-data")
	return cmd
}
