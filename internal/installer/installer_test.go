package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/homenav/internal/hostexec"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

type recordingRunner struct {
	calls []string
	fail  map[string]error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := name + " " + strings.Join(args, " ")
	r.calls = append(r.calls, call)
	return nil, r.fail[call]
}

func newTestInstaller(t *testing.T, runner *recordingRunner) (*Installer, string) {
	t.Helper()
	root := t.TempDir()
	exe := filepath.Join(root, "build", "homenav")
	require.NoError(t, os.MkdirAll(filepath.Dir(exe), 0o755))
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\necho homenav\n"), 0o644))

	in := New(runner, logger.Nop())
	in.GOOS = "linux"
	in.Executable = func() (string, error) { return exe, nil }
	return in, root
}

func installOptions(root string) InstallOptions {
	return InstallOptions{
		InstallPath: filepath.Join(root, "bin", "homenav"),
		UnitPath:    filepath.Join(root, "systemd", "homenav.service"),
		EnvPath:     filepath.Join(root, "default", "homenav"),
		DataDir:     filepath.Join(root, "data"),
		Host:        "0.0.0.0",
		Port:        8080,
		DefaultHost: "nas.local",
	}
}

func TestRenderEnv(t *testing.T) {
	env, err := RenderEnv(InstallOptions{
		Host:        "127.0.0.1",
		Port:        9000,
		DefaultHost: "nas.local",
		DataDir:     "/var/lib/homenav",
		ExtraEnv:    []string{"HOMENAV_DISCOVERY_INTERVAL=15m"},
	})
	require.NoError(t, err)

	assert.Contains(t, env, "HOMENAV_HOST=127.0.0.1\n")
	assert.Contains(t, env, "HOMENAV_PORT=9000\n")
	assert.Contains(t, env, "HOMENAV_DEFAULT_HOST=nas.local\n")
	assert.Contains(t, env, "HOMENAV_DATA_FILE=/var/lib/homenav/services.json\n")
	assert.True(t, strings.HasSuffix(env, "HOMENAV_DISCOVERY_INTERVAL=15m\n"), env)
}

func TestRenderEnvExplicitDataFile(t *testing.T) {
	env, err := RenderEnv(InstallOptions{DataDir: "/var/lib/homenav", DataFile: "/srv/catalog.json"})
	require.NoError(t, err)
	assert.Contains(t, env, "HOMENAV_DATA_FILE=/srv/catalog.json\n")
}

func TestRenderUnit(t *testing.T) {
	unit, err := RenderUnit(InstallOptions{InstallPath: "/usr/local/bin/homenav", EnvPath: "/etc/default/homenav"})
	require.NoError(t, err)

	for _, line := range []string{
		"EnvironmentFile=/etc/default/homenav",
		"ExecStart=/usr/local/bin/homenav serve",
		"Restart=on-failure",
		"NoNewPrivileges=true",
		"PrivateTmp=true",
		"ProtectSystem=full",
		"ProtectHome=true",
		"WantedBy=multi-user.target",
	} {
		assert.Contains(t, unit, line+"\n")
	}
}

func TestInstall(t *testing.T) {
	runner := &recordingRunner{}
	in, root := newTestInstaller(t, runner)
	opts := installOptions(root)

	unit, err := in.Install(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "homenav.service", unit)

	st, err := os.Stat(opts.InstallPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), st.Mode().Perm())

	assert.DirExists(t, opts.DataDir)
	assert.FileExists(t, opts.EnvPath)
	assert.FileExists(t, opts.UnitPath)
	assert.Equal(t, []string{
		"systemctl daemon-reload",
		"systemctl enable --now homenav.service",
	}, runner.calls)
}

func TestInstallNoEnable(t *testing.T) {
	runner := &recordingRunner{}
	in, root := newTestInstaller(t, runner)
	opts := installOptions(root)
	opts.NoEnable = true

	_, err := in.Install(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"systemctl daemon-reload"}, runner.calls)
}

func TestInstallPropagatesSystemctlFailure(t *testing.T) {
	runner := &recordingRunner{fail: map[string]error{
		"systemctl daemon-reload": &hostexec.ExitError{Command: "systemctl", Code: 1},
	}}
	in, root := newTestInstaller(t, runner)

	_, err := in.Install(context.Background(), installOptions(root))
	require.Error(t, err)
	assert.True(t, hostexec.IsExit(err))
}

func TestInstallRejectsNonLinux(t *testing.T) {
	in, root := newTestInstaller(t, &recordingRunner{})
	in.GOOS = "darwin"

	_, err := in.Install(context.Background(), installOptions(root))
	assert.ErrorIs(t, err, ErrUnsupportedOS)
	_, err = in.Uninstall(context.Background(), UninstallOptions{UnitPath: "homenav.service"})
	assert.ErrorIs(t, err, ErrUnsupportedOS)
}

func TestUninstall(t *testing.T) {
	runner := &recordingRunner{}
	in, root := newTestInstaller(t, runner)
	opts := installOptions(root)
	_, err := in.Install(context.Background(), opts)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(opts.DataDir, "services.json"), []byte("[]"), 0o644))

	runner.calls = nil
	// a unit that is already disabled must not abort the uninstall
	runner.fail = map[string]error{
		"systemctl disable --now homenav.service": &hostexec.ExitError{Command: "systemctl", Code: 5},
	}

	unit, err := in.Uninstall(context.Background(), UninstallOptions{
		UnitPath:    opts.UnitPath,
		EnvPath:     opts.EnvPath,
		InstallPath: opts.InstallPath,
		DataDir:     opts.DataDir,
	})
	require.NoError(t, err)
	assert.Equal(t, "homenav.service", unit)

	assert.NoFileExists(t, opts.UnitPath)
	assert.NoFileExists(t, opts.EnvPath)
	assert.FileExists(t, opts.InstallPath, "binary kept by default")
	assert.DirExists(t, opts.DataDir, "data kept by default")
	assert.Equal(t, []string{
		"systemctl disable --now homenav.service",
		"systemctl daemon-reload",
	}, runner.calls)
}

func TestUninstallRemovesBinaryAndData(t *testing.T) {
	in, root := newTestInstaller(t, &recordingRunner{})
	opts := installOptions(root)
	_, err := in.Install(context.Background(), opts)
	require.NoError(t, err)

	_, err = in.Uninstall(context.Background(), UninstallOptions{
		UnitPath:     opts.UnitPath,
		EnvPath:      opts.EnvPath,
		InstallPath:  opts.InstallPath,
		DataDir:      opts.DataDir,
		RemoveBinary: true,
		RemoveData:   true,
	})
	require.NoError(t, err)
	assert.NoFileExists(t, opts.InstallPath)
	assert.NoDirExists(t, opts.DataDir)
}

func TestUninstallMissingFilesIsFine(t *testing.T) {
	in, root := newTestInstaller(t, &recordingRunner{})

	_, err := in.Uninstall(context.Background(), UninstallOptions{
		UnitPath: filepath.Join(root, "nope.service"),
		EnvPath:  filepath.Join(root, "nope.env"),
	})
	assert.NoError(t, err)
}
