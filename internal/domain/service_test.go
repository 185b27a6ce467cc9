package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() ServiceEntry {
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return ServiceEntry{
		ID:           "jellyfin-service",
		ServiceName:  "jellyfin.service",
		DisplayName:  "Jellyfin",
		Description:  Ptr("media server"),
		Host:         "nas",
		Port:         Ptr[uint16](8096),
		Protocol:     ProtocolHTTP,
		Status:       StatusRunning,
		Group:        Ptr("Media"),
		Tags:         []string{"video"},
		Icon:         Ptr("🎬"),
		Source:       SourceAuto,
		LockedFields: []string{"display_name"},
		LastSeenAt:   &seen,
		UpdatedAt:    seen,
	}
}

func TestServiceEntryJSONRoundTrip(t *testing.T) {
	in := sampleEntry()

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out ServiceEntry
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestServiceEntryUsesSnakeCaseKeys(t *testing.T) {
	raw, err := json.Marshal(sampleEntry())
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, k := range []string{"service_name", "display_name", "locked_fields", "last_seen_at", "updated_at"} {
		assert.Contains(t, keys, k)
	}
}

func TestServiceEntryDefaultsWhenFieldsAbsent(t *testing.T) {
	var e ServiceEntry
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","service_name":"x","display_name":"X","host":"h","hidden":false,"favorite":false,"updated_at":"2026-01-01T00:00:00Z"}`), &e))

	assert.Equal(t, ProtocolOther, e.Protocol)
	assert.Equal(t, StatusUnknown, e.Status)
	assert.Equal(t, SourceMerged, e.Source)
	assert.Equal(t, []string{}, e.Tags)
	assert.Equal(t, []string{}, e.LockedFields)
}

func TestServiceEntryRejectsUnknownEnum(t *testing.T) {
	var e ServiceEntry
	err := json.Unmarshal([]byte(`{"id":"x","protocol":"gopher"}`), &e)
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleEntry()
	c := orig.Clone()

	*c.Port = 1
	c.Tags[0] = "changed"
	c.LockedFields[0] = "changed"
	*c.Group = "changed"

	assert.Equal(t, uint16(8096), *orig.Port)
	assert.Equal(t, "video", orig.Tags[0])
	assert.Equal(t, "display_name", orig.LockedFields[0])
	assert.Equal(t, "Media", *orig.Group)
}

func TestSameContentIgnoresTimestamps(t *testing.T) {
	a := sampleEntry()
	b := a.Clone()
	b.UpdatedAt = b.UpdatedAt.Add(time.Hour)
	later := b.UpdatedAt
	b.LastSeenAt = &later

	assert.True(t, a.SameContent(b))

	b.Status = StatusStopped
	assert.False(t, a.SameContent(b))
}

func TestLockKeepsSortedSet(t *testing.T) {
	e := sampleEntry()
	e.Lock("port")
	e.Lock("port")
	e.Lock("description")

	assert.Equal(t, []string{"description", "display_name", "port"}, e.LockedFields)
	assert.True(t, e.IsLocked("port"))
	assert.False(t, e.IsLocked("status"))
}
