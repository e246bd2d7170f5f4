package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/model"
)

func testProfiles() map[string]core.Profile {
	return map[string]core.Profile{
		"alice": {
			Username: "alice", FollowersCount: 5000, FollowingCount: 300, MediaCount: 20,
			EngagementRate: 3.0, ProfilePictureURL: "https://example.com/alice.jpg",
		},
		"bob": {
			Username: "bob", FollowersCount: 20000, FollowingCount: 150, MediaCount: 100,
			IsVerified: true, EngagementRate: 1.5, ProfilePictureURL: "https://example.com/bob.jpg",
		},
	}
}

func scored(p core.Profile, score float64) core.Profile {
	p.SetScore(score)
	return p
}

func TestAgent_FullRunThroughVerification(t *testing.T) {
	profiles := testProfiles()
	fetcher := &stubFetcher{profiles: profiles}

	// bob: followers capped at 100*0.4, rate 1.5 -> 7.5, media capped -> 10.
	ranked := []core.Profile{
		scored(profiles["bob"], 57.5),
		scored(profiles["alice"], 37.0),
	}
	rankedJSON, err := json.Marshal(ranked)
	require.NoError(t, err)

	m := model.NewMockModel("mock")
	m.Queue("FUNCTION_CALL: get_user_metrics|alice")
	m.Queue("FUNCTION_CALL: get_user_metrics|bob")
	// repeat fetches are redirected to scoring by the redundancy guard
	m.Queue("FUNCTION_CALL: get_user_metrics|alice")
	m.Queue("FUNCTION_CALL: get_user_metrics|bob")
	m.Queue("FUNCTION_CALL: rank_users|" + string(rankedJSON))
	// a second ranking attempt must be skipped, not executed
	m.Queue("FUNCTION_CALL: rank_users|[]")
	m.Queue("VERIFICATION: FINAL_ANSWER: " + string(rankedJSON))

	ag := New(m, fetcher)
	result, err := ag.Analyze(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "bob", result[0].Username)
	assert.Equal(t, 57.5, result[0].ScoreValue())
	assert.Equal(t, "alice", result[1].Username)
	assert.Equal(t, 37.0, result[1].ScoreValue())

	// only the two real fetches hit the collaborator
	assert.Equal(t, []string{"alice", "bob"}, fetcher.calls)

	reqs := m.Requests()
	require.Len(t, reqs, 7)
	assert.Contains(t, reqs[6].Prompt, "Ranking is already complete. Please verify the results")
}

func TestAgent_FinalAnswerTerminates(t *testing.T) {
	m := model.NewMockModel("mock")
	m.Queue(`FINAL_ANSWER: [{"username":"alice","score":37}]`)

	ag := New(m, &stubFetcher{})
	result, err := ag.Analyze(context.Background(), []string{"alice"})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "alice", result[0].Username)
	assert.Equal(t, 37.0, result[0].ScoreValue())
}

func TestAgent_PrematureRankingIsSkipped(t *testing.T) {
	fetcher := &stubFetcher{profiles: testProfiles()}

	m := model.NewMockModel("mock")
	m.Queue("FUNCTION_CALL: get_user_metrics|alice")
	m.Queue("FUNCTION_CALL: rank_users|[]")
	m.Queue("THINKING: will score alice next")

	ag := New(m, fetcher, WithMaxIterations(3))
	result, err := ag.Analyze(context.Background(), []string{"alice"})
	require.NoError(t, err)

	// partial results: alice fetched but never scored, never ranked
	require.Len(t, result, 1)
	assert.Nil(t, result[0].Score)
	assert.Equal(t, []string{"alice"}, fetcher.calls)

	reqs := m.Requests()
	require.Len(t, reqs, 3)
	assert.Contains(t, reqs[2].Prompt, "Please calculate scores for these users first: alice")
	assert.Contains(t, reqs[2].Prompt, "still unscored: alice")
}

func TestAgent_BudgetExhaustionReturnsPartialResults(t *testing.T) {
	fetcher := &stubFetcher{profiles: testProfiles()}

	m := model.NewMockModel("mock")
	m.Queue("FUNCTION_CALL: get_user_metrics|alice")

	ag := New(m, fetcher, WithMaxIterations(1))
	result, err := ag.Analyze(context.Background(), []string{"alice", "bob"})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "alice", result[0].Username)
}

func TestAgent_ModelFailureSteersRecovery(t *testing.T) {
	m := model.NewMockModel("mock")
	m.QueueError(errors.New("transport down"))
	m.Queue("THINKING: retrying")

	ag := New(m, &stubFetcher{}, WithMaxIterations(2))
	_, err := ag.Analyze(context.Background(), []string{"alice"})
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1].Prompt, "unexpected format")
}

func TestAgent_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := model.NewMockModel("mock")
	ag := New(m, &stubFetcher{})

	_, err := ag.Analyze(ctx, []string{"alice"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAgent_ErrorProfileDoesNotBlockRanking(t *testing.T) {
	profiles := testProfiles()
	fetcher := &stubFetcher{profiles: profiles}

	rankedJSON, err := json.Marshal([]core.Profile{
		scored(profiles["alice"], 37.0),
		core.PlaceholderProfile("ghost", "Failed to retrieve user data: user not found"),
	})
	require.NoError(t, err)

	m := model.NewMockModel("mock")
	m.Queue("FUNCTION_CALL: get_user_metrics|alice")
	m.Queue("FUNCTION_CALL: get_user_metrics|ghost")
	m.Queue("FUNCTION_CALL: get_user_metrics|alice")
	m.Queue("FUNCTION_CALL: rank_users|" + string(rankedJSON))
	m.Queue("FINAL_ANSWER: " + string(rankedJSON))

	ag := New(m, fetcher)
	result, err := ag.Analyze(context.Background(), []string{"alice", "ghost"})
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].Username)
	assert.True(t, result[1].HasError())
}
