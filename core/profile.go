package core

// Profile is the metrics bundle tracked for one Instagram account. The JSON
// field names form the wire contract with the language model: profiles are
// serialized into prompts and decoded back out of FINAL_ANSWER replies, so
// they must stay stable.
type Profile struct {
	Username          string   `json:"username"`
	FollowersCount    int      `json:"followers_count"`
	FollowingCount    int      `json:"following_count"`
	MediaCount        int      `json:"media_count"`
	IsPrivate         bool     `json:"is_private"`
	IsVerified        bool     `json:"is_verified"`
	EngagementRate    float64  `json:"engagement_rate"`
	ProfilePictureURL string   `json:"profile_picture_url"`
	Score             *float64 `json:"score,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// HasError reports whether the profile is a placeholder produced by a failed
// fetch. Such profiles carry zeroed metrics and must not be scored.
func (p Profile) HasError() bool { return p.Error != "" }

// ScoreValue returns the computed score, or 0 for unscored profiles.
// Ranking relies on this zero default.
func (p Profile) ScoreValue() float64 {
	if p.Score != nil {
		return *p.Score
	}
	return 0
}

// SetScore stores a computed score on the profile.
func (p *Profile) SetScore(score float64) { p.Score = &score }

// PlaceholderProfile builds the zeroed record returned when a fetch fails.
// Errors travel as data so the agent loop can continue with degraded
// information instead of aborting.
func PlaceholderProfile(username, errMsg string) Profile {
	return Profile{Username: username, Error: errMsg}
}
