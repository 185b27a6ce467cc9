package homepage

import (
	"testing"

	"github.com/MrSnakeDoc/homenav/internal/domain"
)

func TestToRequests(t *testing.T) {
	config := ServicesConfig{
		{
			"Infrastructure": []map[string]ServiceProps{
				{
					"AdGuard Home": {
						Icon:        "adguard-home.svg",
						Href:        "https://adguard.home.lan",
						Description: "Network-wide ads blocking",
					},
				},
				{
					"Grafana": {
						Href: "http://nas.local:3000/dashboards",
					},
				},
			},
		},
	}

	reqs, err := ToRequests(config)
	if err != nil {
		t.Fatalf("ToRequests() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("ToRequests() returned %v requests, want 2", len(reqs))
	}

	adguard := reqs[0]
	if adguard.ServiceName != "AdGuard Home" {
		t.Errorf("ServiceName = %q, want AdGuard Home", adguard.ServiceName)
	}
	if *adguard.Host != "adguard.home.lan" {
		t.Errorf("Host = %q, want adguard.home.lan", *adguard.Host)
	}
	if *adguard.Port != 443 {
		t.Errorf("Port = %d, want 443", *adguard.Port)
	}
	if *adguard.Protocol != domain.ProtocolHTTPS {
		t.Errorf("Protocol = %v, want https", *adguard.Protocol)
	}
	if *adguard.Group != "Infrastructure" {
		t.Errorf("Group = %q, want Infrastructure", *adguard.Group)
	}
	if *adguard.Icon != "adguard-home.svg" {
		t.Errorf("Icon = %q", *adguard.Icon)
	}

	grafana := reqs[1]
	if *grafana.Port != 3000 {
		t.Errorf("Port = %d, want 3000", *grafana.Port)
	}
	if *grafana.URL != "http://nas.local:3000/dashboards" {
		t.Errorf("URL = %q", *grafana.URL)
	}
	if grafana.Description != nil {
		t.Errorf("Description = %q, want nil", *grafana.Description)
	}
}

func TestToRequestsEmptyConfig(t *testing.T) {
	reqs, err := ToRequests(ServicesConfig{})
	if err != ErrNoServices {
		t.Errorf("ToRequests() error = %v, want ErrNoServices", err)
	}
	if reqs != nil {
		t.Errorf("ToRequests() = %v, want nil", reqs)
	}
}

func TestToRequestsSkipsUnusableHrefs(t *testing.T) {
	config := ServicesConfig{
		{
			"Test": []map[string]ServiceProps{
				{"Relative": {Href: "not-a-valid-url"}},
				{"Mail": {Href: "mailto:admin@home.lan"}},
				{"Empty": {Href: ""}},
			},
		},
	}

	if _, err := ToRequests(config); err == nil {
		t.Error("ToRequests() should return error when no valid services found")
	}
}

func TestToRequestsMultipleGroups(t *testing.T) {
	config := ServicesConfig{
		{"Group1": []map[string]ServiceProps{{"Service1": {Href: "https://service1.example.com"}}}},
		{"Group2": []map[string]ServiceProps{{"Service2": {Href: "https://service2.example.com"}}}},
	}

	reqs, err := ToRequests(config)
	if err != nil {
		t.Fatalf("ToRequests() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Errorf("ToRequests() returned %v requests, want 2", len(reqs))
	}
}

func TestFromEntries(t *testing.T) {
	media := "Media"
	desc := "Media server"
	entries := []domain.ServiceEntry{
		{ID: "sonarr", DisplayName: "Sonarr", Host: "nas", Port: domain.Ptr[uint16](8989), Protocol: domain.ProtocolHTTP, Group: &media},
		{ID: "jellyfin", DisplayName: "Jellyfin", Host: "nas", Port: domain.Ptr[uint16](8096), Protocol: domain.ProtocolHTTP, Group: &media, Description: &desc},
		{ID: "ssh", DisplayName: "SSH", Host: "nas", Port: domain.Ptr[uint16](22), Protocol: domain.ProtocolTCP},
		{ID: "secret", DisplayName: "Secret", Host: "nas", Port: domain.Ptr[uint16](9000), Protocol: domain.ProtocolHTTP, Hidden: true},
		{ID: "wiki", DisplayName: "Wiki", URL: domain.Ptr("https://wiki.home.lan")},
	}

	config := FromEntries(entries)
	if len(config) != 2 {
		t.Fatalf("FromEntries() returned %d groups, want 2", len(config))
	}

	mediaGroup := config[0]["Media"]
	if len(mediaGroup) != 2 {
		t.Fatalf("Media group has %d services, want 2", len(mediaGroup))
	}
	jf, ok := mediaGroup[0]["Jellyfin"]
	if !ok {
		t.Fatalf("first Media service = %v, want Jellyfin", mediaGroup[0])
	}
	if jf.Href != "http://nas:8096" || jf.Description != "Media server" {
		t.Errorf("Jellyfin props = %+v", jf)
	}

	other := config[1]["Other"]
	if len(other) != 1 || other[0]["Wiki"].Href != "https://wiki.home.lan" {
		t.Errorf("Other group = %+v, want only Wiki", other)
	}
}
