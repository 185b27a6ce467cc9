// Package installer installs homenav as a systemd service on the local host.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/homenav/internal/hostexec"
	"github.com/MrSnakeDoc/homenav/internal/logger"
	"github.com/MrSnakeDoc/homenav/internal/utils"
)

const (
	AppName            = "homenav"
	DefaultInstallPath = "/usr/local/bin/homenav"
	DefaultEnvPath     = "/etc/default/homenav"
	DefaultUnitPath    = "/etc/systemd/system/homenav.service"
	DefaultDataDir     = "/var/lib/homenav"
)

// ErrUnsupportedOS is returned on hosts without systemd.
var ErrUnsupportedOS = errors.New("systemd install is only supported on Linux")

type InstallOptions struct {
	InstallPath string
	UnitPath    string
	EnvPath     string
	DataDir     string
	DataFile    string // defaults to <DataDir>/services.json
	Host        string
	Port        int
	DefaultHost string
	ExtraEnv    []string // additional KEY=value lines for the env file
	NoEnable    bool
}

func (o InstallOptions) dataFile() string {
	if o.DataFile != "" {
		return o.DataFile
	}
	return filepath.Join(o.DataDir, "services.json")
}

type UninstallOptions struct {
	UnitPath     string
	EnvPath      string
	InstallPath  string
	DataDir      string
	RemoveBinary bool
	RemoveData   bool
}

// Installer drives the filesystem and systemctl side of an installation.
type Installer struct {
	Runner     hostexec.Runner
	Logger     logger.Logger
	Executable func() (string, error) // path of the running binary
	GOOS       string
}

func New(runner hostexec.Runner, log logger.Logger) *Installer {
	return &Installer{
		Runner:     runner,
		Logger:     log,
		Executable: os.Executable,
		GOOS:       runtime.GOOS,
	}
}

// Install copies the running binary, writes the env and unit files, reloads
// systemd and, unless NoEnable is set, enables and starts the unit. It
// returns the unit name.
func (i *Installer) Install(ctx context.Context, opts InstallOptions) (string, error) {
	if i.GOOS != "linux" {
		return "", ErrUnsupportedOS
	}
	unit, err := unitName(opts.UnitPath)
	if err != nil {
		return "", err
	}

	if err := i.installBinary(opts.InstallPath); err != nil {
		return "", err
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data dir %s: %w", opts.DataDir, err)
	}

	env, err := RenderEnv(opts)
	if err != nil {
		return "", fmt.Errorf("failed to render env file: %w", err)
	}
	if err := writeFile(opts.EnvPath, env, 0o644); err != nil {
		return "", err
	}
	unitText, err := RenderUnit(opts)
	if err != nil {
		return "", fmt.Errorf("failed to render unit: %w", err)
	}
	if err := writeFile(opts.UnitPath, unitText, 0o644); err != nil {
		return "", err
	}

	if err := i.systemctl(ctx, "daemon-reload"); err != nil {
		return "", err
	}
	if !opts.NoEnable {
		if err := i.systemctl(ctx, "enable", "--now", unit); err != nil {
			return "", err
		}
	}

	i.Logger.Info("systemd unit installed",
		logger.String("unit", unit),
		logger.String("binary", opts.InstallPath),
		logger.Bool("enabled", !opts.NoEnable))
	return unit, nil
}

// Uninstall stops and removes the unit. The binary and the data directory
// are kept unless explicitly requested.
func (i *Installer) Uninstall(ctx context.Context, opts UninstallOptions) (string, error) {
	if i.GOOS != "linux" {
		return "", ErrUnsupportedOS
	}
	unit, err := unitName(opts.UnitPath)
	if err != nil {
		return "", err
	}

	// the unit may already be stopped or never enabled
	if err := i.systemctl(ctx, "disable", "--now", unit); err != nil {
		i.Logger.Warn("systemctl disable failed, continuing", logger.Error(err))
	}

	for _, p := range []string{opts.UnitPath, opts.EnvPath} {
		if err := removeIfExists(p); err != nil {
			return "", err
		}
	}
	if err := i.systemctl(ctx, "daemon-reload"); err != nil {
		return "", err
	}

	if opts.RemoveBinary {
		if err := removeIfExists(opts.InstallPath); err != nil {
			return "", err
		}
	}
	if opts.RemoveData && opts.DataDir != "" {
		if err := os.RemoveAll(opts.DataDir); err != nil {
			return "", fmt.Errorf("failed to remove data dir %s: %w", opts.DataDir, err)
		}
	}

	i.Logger.Info("systemd unit removed",
		logger.String("unit", unit),
		logger.Bool("binary_removed", opts.RemoveBinary),
		logger.Bool("data_removed", opts.RemoveData))
	return unit, nil
}

func (i *Installer) systemctl(ctx context.Context, args ...string) error {
	if _, err := i.Runner.Run(ctx, "systemctl", args...); err != nil {
		return fmt.Errorf("systemctl %v: %w", args, err)
	}
	return nil
}

// installBinary copies the running executable to dst (0755). The copy goes
// through a temp file and a rename so a running binary at dst is replaced,
// not truncated.
func (i *Installer) installBinary(dst string) error {
	src, err := i.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate current executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(src); err == nil {
		src = resolved
	}
	if abs, err := filepath.Abs(dst); err == nil && abs == src {
		return os.Chmod(dst, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer utils.Close(srcFile)

	tmp := dst + ".tmp-" + uuid.NewString()
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, srcFile); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o755); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to install binary at %s: %w", dst, err)
	}
	return nil
}

func unitName(unitPath string) (string, error) {
	name := filepath.Base(unitPath)
	if unitPath == "" || name == "." || name == "/" {
		return "", fmt.Errorf("invalid unit path: %q", unitPath)
	}
	return name, nil
}

func writeFile(path, content string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
