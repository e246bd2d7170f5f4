package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/logging"
	"github.com/instarank/instarank/memory"
)

// Function names the model may invoke.
const (
	FuncGetUserMetrics = "get_user_metrics"
	FuncCalculateScore = "calculate_user_score"
	FuncRankUsers      = "rank_users"
)

// recoveryNote steers the model back to the expected reply format after a
// malformed reply or a failed model invocation.
const recoveryNote = "The last response had an unexpected format. Reply again using exactly one of the THINKING, FUNCTION_CALL, VERIFICATION or FINAL_ANSWER formats."

// DecisionKind discriminates the Decision sum type.
type DecisionKind int

const (
	// DecisionNote records reasoning or a guard outcome; no action runs.
	DecisionNote DecisionKind = iota
	// DecisionInvoke requests a function execution.
	DecisionInvoke
	// DecisionCheck is the outcome of a verification request.
	DecisionCheck
	// DecisionFinal carries the decoded terminal ranking.
	DecisionFinal
)

// String returns the lowercase tag used in transcripts.
func (k DecisionKind) String() string {
	switch k {
	case DecisionNote:
		return "thinking"
	case DecisionInvoke:
		return "function_call"
	case DecisionCheck:
		return "verification"
	case DecisionFinal:
		return "final_answer"
	}
	return "invalid"
}

// Decision is the decision layer's output for one iteration. For
// DecisionInvoke, Result is filled in by the orchestrator after execution.
type Decision struct {
	Kind      DecisionKind
	Note      string
	Function  string
	RawParams string
	Result    *Result
	CheckOK   bool
	Ranked    []core.Profile
}

// Decider maps intents to the next action, applying redundancy guards
// against re-fetching profiles the session already holds.
type Decider struct {
	logger logging.Logger
}

// NewDecider constructs a Decider.
func NewDecider(logger logging.Logger) *Decider {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Decider{logger: logger}
}

// Decide determines the next action from the parsed intent and memory.
func (d *Decider) Decide(intent core.Intent, mem *memory.Memory, targets []string) Decision {
	switch intent.Kind {
	case core.IntentNote:
		d.logger.Info("agent thinking", "content", intent.Content)
		return Decision{Kind: DecisionNote, Note: intent.Content}

	case core.IntentCheck:
		ok := CheckOutput(intent.Content, d.logger)
		return Decision{Kind: DecisionCheck, CheckOK: ok, Note: intent.Content}

	case core.IntentToolCall:
		return d.decideCall(intent.Function, intent.Params, "", mem)

	case core.IntentComposite:
		return d.decideCall(intent.Function, intent.Params, intent.Note, mem)

	case core.IntentFinal:
		var ranked []core.Profile
		if err := json.Unmarshal([]byte(intent.Content), &ranked); err != nil {
			d.logger.Error("could not decode final answer", "error", err.Error())
			return Decision{Kind: DecisionCheck, CheckOK: false, Note: "could not decode final answer as a profile list"}
		}
		return Decision{Kind: DecisionFinal, Ranked: ranked}

	case core.IntentMalformed, core.IntentFailure:
		d.logger.Warn("unparseable model turn", "kind", intent.Kind.String(), "content", intent.Content)
		return Decision{Kind: DecisionNote, Note: recoveryNote}
	}

	return Decision{Kind: DecisionNote, Note: recoveryNote}
}

// decideCall gates fetch calls against session memory. A fetch for a profile
// that is already present is redirected to scoring (if unscored) or answered
// with a note (if fully handled); everything else passes through.
func (d *Decider) decideCall(function, params, note string, mem *memory.Memory) Decision {
	if function == FuncGetUserMetrics {
		username := strings.Trim(strings.TrimSpace(params), `"'`)
		if mem.Processed(username) {
			profile, ok := mem.Profile(username)
			if ok && profile.Score == nil {
				encoded, err := json.Marshal(profile)
				if err == nil {
					d.logger.Info("redirecting redundant fetch to scoring", "username", username)
					return Decision{Kind: DecisionInvoke, Function: FuncCalculateScore, RawParams: string(encoded), Note: note}
				}
			}
			if ok && profile.Score != nil {
				return Decision{
					Kind: DecisionNote,
					Note: fmt.Sprintf("%s already has metrics and a score, no further action needed", username),
				}
			}
		}
	}

	d.logger.Info("function call", "function", function, "params", params)
	return Decision{Kind: DecisionInvoke, Function: function, RawParams: params, Note: note}
}

var finalAnswerPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(core.MarkerFinal) + `\s*(\[.*\])`)

// CheckOutput verifies that content carries a FINAL_ANSWER-prefixed JSON
// array whose first element satisfies the profile schema. It fails closed:
// a missing pattern, a decode error, an empty array or a shape violation all
// report failure.
func CheckOutput(content string, logger logging.Logger) bool {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	match := finalAnswerPattern.FindStringSubmatch(content)
	if match == nil {
		logger.Warn("no final answer array found in verification content")
		return false
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(match[1]), &items); err != nil {
		logger.Error("failed to parse verification array", "error", err.Error())
		return false
	}
	if len(items) == 0 {
		logger.Warn("verification array is empty")
		return false
	}

	if err := core.ValidateProfileShape(items[0]); err != nil {
		logger.Error("profile shape validation failed", "error", err.Error())
		return false
	}
	return true
}
