package agent

import (
	"math"
	"sort"

	"github.com/instarank/instarank/core"
)

// Weights control the contribution of each normalized sub-score to the
// overall profile score. They are configurable but default to the fixed
// followers 0.4 / engagement 0.5 / media 0.1 split.
type Weights struct {
	Followers  float64
	Engagement float64
	Media      float64
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{Followers: 0.4, Engagement: 0.5, Media: 0.1}
}

// Scorer computes profile scores. Pure and deterministic.
type Scorer struct {
	weights Weights
}

// NewScorer constructs a Scorer with the given weights.
func NewScorer(weights Weights) Scorer {
	return Scorer{weights: weights}
}

// Score returns the profile with its score set. Each sub-score is
// normalized to [0, 100] before weighting; the weighted sum is rounded to
// two decimals. Profiles carrying an error marker pass through unchanged.
func (s Scorer) Score(p core.Profile) core.Profile {
	if p.HasError() {
		return p
	}

	followersScore := math.Min(100, float64(p.FollowersCount)/1000*10)
	engagementScore := math.Min(100, p.EngagementRate*10)
	mediaScore := math.Min(100, float64(p.MediaCount)/10*10)

	total := followersScore*s.weights.Followers +
		engagementScore*s.weights.Engagement +
		mediaScore*s.weights.Media

	p.SetScore(math.Round(total*100) / 100)
	return p
}

// RankProfiles returns a new slice sorted by score descending. The sort is
// stable and profiles without a score rank as zero, so ranking an already
// ranked list is a no-op.
func RankProfiles(profiles []core.Profile) []core.Profile {
	ranked := make([]core.Profile, len(profiles))
	copy(ranked, profiles)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ScoreValue() > ranked[j].ScoreValue()
	})
	return ranked
}
