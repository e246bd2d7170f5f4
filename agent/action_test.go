package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instarank/instarank/core"
)

// stubFetcher returns canned profiles by username and records call order.
type stubFetcher struct {
	profiles map[string]core.Profile
	calls    []string
}

func (f *stubFetcher) UserMetrics(_ context.Context, username string) core.Profile {
	f.calls = append(f.calls, username)
	if p, ok := f.profiles[username]; ok {
		return p
	}
	return core.PlaceholderProfile(username, "Failed to retrieve user data: user not found")
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	t.Run("weighted sum rounded to two decimals", func(t *testing.T) {
		// followers 5000 -> 50*0.4=20, rate 3.0 -> 30*0.5=15, media 20 -> 20*0.1=2
		p := scorer.Score(core.Profile{Username: "alice", FollowersCount: 5000, EngagementRate: 3.0, MediaCount: 20})
		require.NotNil(t, p.Score)
		assert.Equal(t, 37.0, *p.Score)
	})

	t.Run("sub scores cap at 100", func(t *testing.T) {
		p := scorer.Score(core.Profile{Username: "mega", FollowersCount: 10_000_000, EngagementRate: 50, MediaCount: 9000})
		require.NotNil(t, p.Score)
		assert.Equal(t, 100.0, *p.Score)
	})

	t.Run("zeroed profile scores zero", func(t *testing.T) {
		p := scorer.Score(core.Profile{Username: "empty"})
		require.NotNil(t, p.Score)
		assert.Equal(t, 0.0, *p.Score)
	})

	t.Run("error profile passes through unscored", func(t *testing.T) {
		in := core.PlaceholderProfile("ghost", "Failed to retrieve user data: not found")
		p := scorer.Score(in)
		assert.Nil(t, p.Score)
		assert.Equal(t, in, p)
	})
}

func TestRankProfiles(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	t.Run("descending by score with nil as zero", func(t *testing.T) {
		in := []core.Profile{
			{Username: "low", Score: score(10)},
			{Username: "unscored"},
			{Username: "high", Score: score(90)},
		}
		out := RankProfiles(in)
		require.Len(t, out, 3)
		assert.Equal(t, "high", out[0].Username)
		assert.Equal(t, "low", out[1].Username)
		assert.Equal(t, "unscored", out[2].Username)
		// input untouched
		assert.Equal(t, "low", in[0].Username)
	})

	t.Run("stable on ties and idempotent", func(t *testing.T) {
		in := []core.Profile{
			{Username: "first", Score: score(50)},
			{Username: "second", Score: score(50)},
		}
		once := RankProfiles(in)
		twice := RankProfiles(once)
		assert.Equal(t, once, twice)
		assert.Equal(t, "first", once[0].Username)
	})
}

func TestParseParams(t *testing.T) {
	t.Run("username trims quotes", func(t *testing.T) {
		p, err := ParseParams(FuncGetUserMetrics, ` "alice" `)
		require.NoError(t, err)
		assert.Equal(t, "alice", p.Username)
	})

	t.Run("empty username rejected", func(t *testing.T) {
		_, err := ParseParams(FuncGetUserMetrics, "")
		assert.Error(t, err)
	})

	t.Run("score takes a profile object", func(t *testing.T) {
		p, err := ParseParams(FuncCalculateScore, `{"username":"alice","followers_count":5000}`)
		require.NoError(t, err)
		require.NotNil(t, p.Profile)
		assert.Equal(t, "alice", p.Profile.Username)
	})

	t.Run("rank takes a profile array", func(t *testing.T) {
		p, err := ParseParams(FuncRankUsers, `[{"username":"a"},{"username":"b"}]`)
		require.NoError(t, err)
		assert.Len(t, p.Profiles, 2)
	})

	t.Run("unknown function rejected", func(t *testing.T) {
		_, err := ParseParams("delete_account", "alice")
		assert.Error(t, err)
	})
}

func TestExecutor_ErrorsStayData(t *testing.T) {
	fetcher := &stubFetcher{profiles: map[string]core.Profile{}}
	e := NewExecutor(fetcher, NewScorer(DefaultWeights()), nil)

	t.Run("fetch failure returns placeholder not error", func(t *testing.T) {
		res := e.Execute(context.Background(), FuncGetUserMetrics, "ghost")
		require.NotNil(t, res.Profile)
		assert.Empty(t, res.Err)
		assert.True(t, res.Profile.HasError())
		assert.Equal(t, "ghost", res.Profile.Username)
	})

	t.Run("bad params become result error", func(t *testing.T) {
		res := e.Execute(context.Background(), FuncCalculateScore, "not json")
		assert.NotEmpty(t, res.Err)
		assert.Nil(t, res.Profile)
	})

	t.Run("unknown function becomes result error", func(t *testing.T) {
		res := e.Execute(context.Background(), "no_such_function", "")
		assert.NotEmpty(t, res.Err)
	})
}

func TestFormatIteration(t *testing.T) {
	t.Run("note line", func(t *testing.T) {
		line := FormatIteration(2, Decision{Kind: DecisionNote, Note: "planning"})
		assert.Equal(t, "Iteration 2 [thinking]: planning", line)
	})

	t.Run("invoke line carries function and result", func(t *testing.T) {
		p := core.Profile{Username: "alice"}
		line := FormatIteration(3, Decision{
			Kind:      DecisionInvoke,
			Function:  FuncGetUserMetrics,
			RawParams: "alice",
			Result:    &Result{Profile: &p},
		})
		assert.Contains(t, line, "Iteration 3 [function_call]:")
		assert.Contains(t, line, "called get_user_metrics with alice parameters")
		assert.Contains(t, line, `"username":"alice"`)
		assert.NotContains(t, line, "with an error")
	})

	t.Run("invoke line flags errors", func(t *testing.T) {
		line := FormatIteration(4, Decision{
			Kind:      DecisionInvoke,
			Function:  FuncCalculateScore,
			RawParams: "{}",
			Result:    &Result{Err: "bad parameters"},
		})
		assert.Contains(t, line, "returned with an error")
		assert.Contains(t, line, "bad parameters")
	})

	t.Run("composite invoke carries the note", func(t *testing.T) {
		p := core.Profile{Username: "bob"}
		line := FormatIteration(5, Decision{
			Kind:      DecisionInvoke,
			Function:  FuncGetUserMetrics,
			RawParams: "bob",
			Note:      "bob is next",
			Result:    &Result{Profile: &p},
		})
		assert.Contains(t, line, "You thought: bob is next\n")
		assert.Contains(t, line, "Iteration 5 [function_call]:")
	})

	t.Run("verification lines", func(t *testing.T) {
		ok := FormatIteration(6, Decision{Kind: DecisionCheck, CheckOK: true, Note: "looks good"})
		assert.Contains(t, ok, "Iteration 6 [verification]: succeeded, proceed with FINAL_ANSWER.")
		failed := FormatIteration(7, Decision{Kind: DecisionCheck, CheckOK: false, Note: "bad shape"})
		assert.Contains(t, failed, "Iteration 7 [verification]: failed. bad shape")
	})

	t.Run("final line counts users", func(t *testing.T) {
		line := FormatIteration(8, Decision{Kind: DecisionFinal, Ranked: []core.Profile{{}, {}}})
		assert.Equal(t, "Iteration 8 [final_answer]: 2 ranked users", line)
	})
}
