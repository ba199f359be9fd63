package content

import (
	"slices"
)

// DefaultNewDropWindow is how many cards the New Drop feed keeps.
const DefaultNewDropWindow = 8

// BuildNewDrop merges projects, experiments and notes into a single
// latest-first feed truncated to window cards.
func BuildNewDrop(n *Normalizer, projects, experiments, notes []RawItem, window int) []Card {
	all := make([]Card, 0, len(projects)+len(experiments)+len(notes))
	all = append(all, n.RunAll(projects, KindProject)...)
	all = append(all, n.RunAll(experiments, KindExperiment)...)
	all = append(all, n.RunAll(notes, KindNote)...)

	SortLatestFirst(all)

	if window > 0 && len(all) > window {
		all = all[:window]
	}
	return all
}

// SortLatestFirst orders cards by descending timestamp. Undated cards go
// last; ties keep their relative order.
func SortLatestFirst(cards []Card) {
	slices.SortStableFunc(cards, func(a, b Card) int {
		switch {
		case a.Timestamp == nil && b.Timestamp == nil:
			return 0
		case a.Timestamp == nil:
			return 1
		case b.Timestamp == nil:
			return -1
		}
		return b.Timestamp.Compare(*a.Timestamp)
	})
}
