package discovery

import (
	"sort"
	"time"

	"github.com/MrSnakeDoc/homenav/internal/domain"
)

// Merge reconciles freshly discovered entries into the current catalog.
//
//   - an unknown id is added as-is
//   - a known id has every unlocked mergeable field overwritten, its
//     LastSeenAt copied, Source set to merged and UpdatedAt set to now
//   - a current entry missing from discovered is kept with Status unknown
//
// Added/Updated/Unchanged are filled in on summary; unchanged means no
// field other than UpdatedAt and LastSeenAt differs. The result is sorted
// stably by DisplayName with current entries ahead of additions on ties.
// Inputs are never modified.
func Merge(current, discovered []domain.ServiceEntry, summary domain.DiscoveryStatus, now time.Time) ([]domain.ServiceEntry, domain.DiscoveryStatus) {
	merged := domain.CloneEntries(current)
	index := make(map[string]int, len(merged))
	for i, e := range merged {
		index[e.ID] = i
	}

	seen := make(map[string]bool, len(discovered))
	summary.Added, summary.Updated, summary.Unchanged = 0, 0, 0

	for _, d := range discovered {
		seen[d.ID] = true
		i, ok := index[d.ID]
		if !ok {
			index[d.ID] = len(merged)
			merged = append(merged, d.Clone())
			summary.Added++
			continue
		}

		before := merged[i]
		after := mergeEntry(before, d, now)
		if after.SameContent(before) {
			summary.Unchanged++
		} else {
			summary.Updated++
		}
		merged[i] = after
	}

	for i := range merged {
		if _, ok := seen[merged[i].ID]; ok {
			continue
		}
		merged[i].Status = domain.StatusUnknown
		if now.After(merged[i].UpdatedAt) {
			merged[i].UpdatedAt = now
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].DisplayName < merged[b].DisplayName
	})
	return merged, summary
}

func mergeEntry(existing, d domain.ServiceEntry, now time.Time) domain.ServiceEntry {
	out := existing.Clone()
	d = d.Clone()
	unlocked := func(field string) bool { return !existing.IsLocked(field) }

	if unlocked(domain.FieldServiceName) {
		out.ServiceName = d.ServiceName
	}
	if unlocked(domain.FieldDisplayName) {
		out.DisplayName = d.DisplayName
	}
	if unlocked(domain.FieldHost) {
		out.Host = d.Host
	}
	if unlocked(domain.FieldPort) {
		out.Port = d.Port
	}
	if unlocked(domain.FieldProtocol) {
		out.Protocol = d.Protocol
	}
	if unlocked(domain.FieldPath) {
		out.Path = d.Path
	}
	if unlocked(domain.FieldURL) {
		out.URL = d.URL
	}
	if unlocked(domain.FieldStatus) {
		out.Status = d.Status
	}
	if unlocked(domain.FieldDescription) {
		out.Description = d.Description
	}
	if unlocked(domain.FieldHidden) {
		out.Hidden = d.Hidden
	}
	if unlocked(domain.FieldFavorite) {
		out.Favorite = d.Favorite
	}

	out.LastSeenAt = d.LastSeenAt
	out.Source = domain.SourceMerged
	out.UpdatedAt = now
	if existing.UpdatedAt.After(now) {
		out.UpdatedAt = existing.UpdatedAt
	}
	return out
}
