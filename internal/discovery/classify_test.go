package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/homenav/internal/domain"
)

func TestClassify(t *testing.T) {
	port := domain.Ptr[uint16](8080)

	tests := []struct {
		name       string
		unit       string
		port       *uint16
		group      *string
		icon       *string
		wantGroup  string
		wantIcon   string
		wantHidden bool
	}{
		{"portless unit is system", "systemd-timesyncd.service", nil, nil, nil, GroupSystem, "", true},
		{"portless keeps group but hidden", "cron.service", nil, domain.Ptr("Custom"), nil, "Custom", "", true},
		{"preset group becomes visible", "nginx.service", port, domain.Ptr("Edge"), nil, "Edge", "", false},
		{"syncthing", "syncthing@alice.service", port, nil, nil, GroupSync, "🔄", false},
		{"immich", "immich-server.service", port, nil, nil, GroupPhotos, "📷", false},
		{"downloads", "qbittorrent-nox.service", port, nil, nil, GroupDownloads, "⬇️", false},
		{"media", "jellyfin.service", port, nil, nil, GroupMedia, "🎬", false},
		{"monitoring", "prometheus-node.service", port, nil, nil, GroupMonitoring, "📈", false},
		{"reverse proxy hidden", "caddy.service", port, nil, nil, GroupSystem, "🌐", true},
		{"existing icon kept", "plex.service", port, nil, domain.Ptr("📺"), GroupMedia, "📺", false},
		{"fallback", "gitea.service", port, nil, nil, GroupOther, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := domain.ServiceEntry{ServiceName: tt.unit, Port: tt.port, Group: tt.group, Icon: tt.icon}
			Classify(&e)

			if assert.NotNil(t, e.Group) {
				assert.Equal(t, tt.wantGroup, *e.Group)
			}
			if tt.wantIcon == "" {
				assert.Nil(t, e.Icon)
			} else if assert.NotNil(t, e.Icon) {
				assert.Equal(t, tt.wantIcon, *e.Icon)
			}
			assert.Equal(t, tt.wantHidden, e.Hidden)
		})
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	e := domain.ServiceEntry{ServiceName: "syncthing-nginx.service", Port: domain.Ptr[uint16](8384)}
	Classify(&e)

	assert.Equal(t, GroupSync, *e.Group)
	assert.False(t, e.Hidden)
}
