package probe

import (
	"context"
	"log/slog"
	"path"
	"sort"

	"github.com/lysyi3m/edgeboard/app/content"
)

type Prober struct {
	checker    Checker
	maxSlots   int
	minSlots   int
	deadStreak int
}

// NewProber returns a prober; non-positive limits fall back to the defaults.
func NewProber(checker Checker, maxSlots, minSlots, deadStreak int) *Prober {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	if minSlots <= 0 {
		minSlots = DefaultMinSlots
	}
	if deadStreak <= 0 {
		deadStreak = DefaultDeadStreak
	}
	return &Prober{
		checker:    checker,
		maxSlots:   maxSlots,
		minSlots:   minSlots,
		deadStreak: deadStreak,
	}
}

// Run scans slots 1..maxSlots in order. A slot is a hit when any of its
// candidates exists. Scanning stops once at least minSlots slots were
// checked and the last deadStreak slots were all misses.
func (p *Prober) Run(ctx context.Context, conv Convention) []Found {
	found := []Found{}
	dead := 0
	slot := 1

	for ; slot <= p.maxSlots; slot++ {
		if ctx.Err() != nil {
			break
		}

		hit := false
		for _, url := range conv.Candidates(slot) {
			if !p.checker.Exists(ctx, url) {
				continue
			}
			hit = true
			kind, _ := content.SniffMediaKind(url)
			found = append(found, Found{
				Name: path.Base(url),
				URL:  url,
				Kind: kind,
			})
		}

		if hit {
			dead = 0
		} else {
			dead++
		}
		if slot >= p.minSlots && dead >= p.deadStreak {
			break
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return NaturalLess(found[i].Name, found[j].Name)
	})

	slog.Debug("Media probe finished", "convention", conv.Name, "last_slot", min(slot, p.maxSlots), "found", len(found))
	return found
}
