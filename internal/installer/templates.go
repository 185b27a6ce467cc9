package installer

import (
	"strings"
	"text/template"
)

var envTemplate = template.Must(template.New("env").Parse(`# {{.AppName}} environment, written by "{{.AppName}} systemd install"
HOMENAV_HOST={{.Host}}
HOMENAV_PORT={{.Port}}
HOMENAV_DEFAULT_HOST={{.DefaultHost}}
HOMENAV_DATA_FILE={{.DataFile}}
{{- range .Extra}}
{{.}}
{{- end}}
`))

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{.Description}}
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
EnvironmentFile={{.EnvPath}}
ExecStart={{.InstallPath}} serve
Restart=on-failure
RestartSec=2

NoNewPrivileges=true
PrivateTmp=true
ProtectSystem=full
ProtectHome=true

[Install]
WantedBy=multi-user.target
`))

type envData struct {
	AppName     string
	Host        string
	Port        int
	DefaultHost string
	DataFile    string
	Extra       []string
}

type unitData struct {
	Description string
	EnvPath     string
	InstallPath string
}

// RenderEnv renders the EnvironmentFile read by the unit.
func RenderEnv(opts InstallOptions) (string, error) {
	var b strings.Builder
	err := envTemplate.Execute(&b, envData{
		AppName:     AppName,
		Host:        opts.Host,
		Port:        opts.Port,
		DefaultHost: opts.DefaultHost,
		DataFile:    opts.dataFile(),
		Extra:       opts.ExtraEnv,
	})
	return b.String(), err
}

// RenderUnit renders the systemd service unit.
func RenderUnit(opts InstallOptions) (string, error) {
	var b strings.Builder
	err := unitTemplate.Execute(&b, unitData{
		Description: "homenav home server service navigator",
		EnvPath:     opts.EnvPath,
		InstallPath: opts.InstallPath,
	})
	return b.String(), err
}
