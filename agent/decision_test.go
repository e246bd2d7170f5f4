package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/memory"
)

func TestDecide_NotePassesThrough(t *testing.T) {
	d := NewDecider(nil)
	dec := d.Decide(core.NoteIntent("planning"), memory.New(nil), nil)
	assert.Equal(t, DecisionNote, dec.Kind)
	assert.Equal(t, "planning", dec.Note)
}

func TestDecide_RedundantFetchRedirectsToScoring(t *testing.T) {
	mem := memory.New(nil)
	mem.RecordMetrics(core.Profile{Username: "alice", FollowersCount: 5000})

	d := NewDecider(nil)
	dec := d.Decide(core.ToolCallIntent(FuncGetUserMetrics, "alice"), mem, []string{"alice"})

	require.Equal(t, DecisionInvoke, dec.Kind)
	assert.Equal(t, FuncCalculateScore, dec.Function)

	var p core.Profile
	require.NoError(t, json.Unmarshal([]byte(dec.RawParams), &p))
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 5000, p.FollowersCount)
}

func TestDecide_FullyHandledFetchBecomesNote(t *testing.T) {
	mem := memory.New(nil)
	mem.RecordMetrics(core.Profile{Username: "alice"})
	mem.RecordScore("alice", 37.0)

	d := NewDecider(nil)
	dec := d.Decide(core.ToolCallIntent(FuncGetUserMetrics, "alice"), mem, []string{"alice"})

	require.Equal(t, DecisionNote, dec.Kind)
	assert.Contains(t, dec.Note, "alice already has metrics and a score")
}

func TestDecide_QuotedUsernameStillMatchesGuard(t *testing.T) {
	mem := memory.New(nil)
	mem.RecordMetrics(core.Profile{Username: "alice"})

	d := NewDecider(nil)
	dec := d.Decide(core.ToolCallIntent(FuncGetUserMetrics, `"alice"`), mem, []string{"alice"})

	require.Equal(t, DecisionInvoke, dec.Kind)
	assert.Equal(t, FuncCalculateScore, dec.Function)
}

func TestDecide_UnknownFetchPassesThrough(t *testing.T) {
	d := NewDecider(nil)
	dec := d.Decide(core.ToolCallIntent(FuncGetUserMetrics, "bob"), memory.New(nil), []string{"bob"})
	require.Equal(t, DecisionInvoke, dec.Kind)
	assert.Equal(t, FuncGetUserMetrics, dec.Function)
	assert.Equal(t, "bob", dec.RawParams)
}

func TestDecide_FinalAnswerDecodes(t *testing.T) {
	d := NewDecider(nil)
	dec := d.Decide(core.FinalIntent(`[{"username":"alice","score":37}]`), memory.New(nil), nil)
	require.Equal(t, DecisionFinal, dec.Kind)
	require.Len(t, dec.Ranked, 1)
	assert.Equal(t, "alice", dec.Ranked[0].Username)
	assert.Equal(t, 37.0, dec.Ranked[0].ScoreValue())
}

func TestDecide_UndecodableFinalAnswerFailsVerification(t *testing.T) {
	d := NewDecider(nil)
	dec := d.Decide(core.FinalIntent("not json at all"), memory.New(nil), nil)
	require.Equal(t, DecisionCheck, dec.Kind)
	assert.False(t, dec.CheckOK)
}

func TestDecide_MalformedAndFailureSteerRecovery(t *testing.T) {
	d := NewDecider(nil)
	for _, intent := range []core.Intent{
		core.MalformedIntent("free text"),
		core.FailureIntent("timeout"),
	} {
		dec := d.Decide(intent, memory.New(nil), nil)
		assert.Equal(t, DecisionNote, dec.Kind)
		assert.Equal(t, recoveryNote, dec.Note)
	}
}

func TestCheckOutput(t *testing.T) {
	valid := `FINAL_ANSWER: [{"username":"alice","followers_count":5000,"following_count":300,` +
		`"media_count":20,"is_private":false,"is_verified":true,"engagement_rate":3.0,` +
		`"profile_picture_url":"https://example.com/a.jpg","score":37.0}]`

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"valid final answer", valid, true},
		{"no marker", `[{"username":"alice"}]`, false},
		{"marker without array", "FINAL_ANSWER: done", false},
		{"empty array", "FINAL_ANSWER: []", false},
		{"broken json", "FINAL_ANSWER: [{", false},
		{"missing required field", `FINAL_ANSWER: [{"username":"alice"}]`, false},
		{"wrong field type", `FINAL_ANSWER: [{"username":1,"followers_count":5000,"following_count":300,` +
			`"media_count":20,"is_private":false,"is_verified":true,"engagement_rate":3.0,` +
			`"profile_picture_url":"u"}]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckOutput(tt.content, nil))
		})
	}
}
