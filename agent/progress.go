package agent

import (
	"fmt"
	"strings"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/memory"
)

// Progress summarizes how far an analysis run has advanced. It is re-derived
// from memory every iteration, never cached.
type Progress struct {
	Total           int
	Processed       int
	Unprocessed     []string
	Unscored        []string
	AllProcessed    bool
	AllScored       bool
	ReadyForRanking bool
}

// EvaluateProgress computes the current progress against the target set.
func EvaluateProgress(mem *memory.Memory, targets []string) Progress {
	unscored := unscoredNames(mem.Unscored())
	allProcessed := mem.AllProcessed(targets)
	allScored := mem.AllScored()

	return Progress{
		Total:           len(targets),
		Processed:       len(mem.Profiles()),
		Unprocessed:     mem.Unprocessed(targets),
		Unscored:        unscored,
		AllProcessed:    allProcessed,
		AllScored:       allScored,
		ReadyForRanking: allProcessed && allScored,
	}
}

// Summary renders the structured status line appended to every steering
// query.
func (p Progress) Summary(ranked bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %d of %d users have metrics.", p.Processed, p.Total)
	if len(p.Unprocessed) > 0 {
		fmt.Fprintf(&b, " Still without metrics: %s.", strings.Join(p.Unprocessed, ", "))
	}
	if len(p.Unscored) > 0 {
		fmt.Fprintf(&b, " Still unscored: %s.", strings.Join(p.Unscored, ", "))
	}
	if p.ReadyForRanking {
		b.WriteString(" All users are processed and scored.")
	}
	if ranked {
		b.WriteString(" Ranking is complete.")
	}
	return b.String()
}

func unscoredNames(profiles []core.Profile) []string {
	var names []string
	for _, p := range profiles {
		if p.Username != "" {
			names = append(names, p.Username)
		}
	}
	return names
}
