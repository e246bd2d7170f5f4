package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/logging"
)

// Fetcher is the narrow interface to the metrics collaborator. It never
// returns an error: failures come back as placeholder profiles carrying an
// error string.
type Fetcher interface {
	UserMetrics(ctx context.Context, username string) core.Profile
}

// Params is the single structured parameter shape the executor handles.
// Exactly one field is populated, matching the function being invoked.
type Params struct {
	Username string         // get_user_metrics
	Profile  *core.Profile  // calculate_user_score
	Profiles []core.Profile // rank_users
}

// ParseParams converts the raw parameter string from a function call into
// the structured Params for the named function.
func ParseParams(function, raw string) (Params, error) {
	raw = strings.TrimSpace(raw)
	switch function {
	case FuncGetUserMetrics:
		username := strings.Trim(raw, `"'`)
		if username == "" {
			return Params{}, fmt.Errorf("%s requires a username parameter", FuncGetUserMetrics)
		}
		return Params{Username: username}, nil

	case FuncCalculateScore:
		var profile core.Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			return Params{}, fmt.Errorf("%s requires a profile JSON object: %w", FuncCalculateScore, err)
		}
		return Params{Profile: &profile}, nil

	case FuncRankUsers:
		var profiles []core.Profile
		if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
			return Params{}, fmt.Errorf("%s requires a profile JSON array: %w", FuncRankUsers, err)
		}
		return Params{Profiles: profiles}, nil
	}

	return Params{}, fmt.Errorf("unknown function %s", function)
}

// Result is the outcome of an executed operation. Err is data, not a raised
// fault; the loop continues and the transcript surfaces it.
type Result struct {
	Profile  *core.Profile
	Profiles []core.Profile
	Err      string
}

// JSON renders the result payload for transcript lines.
func (r Result) JSON() string {
	var payload any
	switch {
	case r.Err != "":
		payload = map[string]string{"error": r.Err}
	case r.Profile != nil:
		payload = r.Profile
	case r.Profiles != nil:
		payload = r.Profiles
	default:
		return "{}"
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// Executor dispatches decided function calls to their implementations.
type Executor struct {
	fetcher Fetcher
	scorer  Scorer
	logger  logging.Logger
}

// NewExecutor constructs an Executor.
func NewExecutor(fetcher Fetcher, scorer Scorer, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Executor{fetcher: fetcher, scorer: scorer, logger: logger}
}

// Execute runs one operation. Nothing escapes this boundary as a raised
// error: unknown names, bad parameters and fetch failures all come back as
// Result values.
func (e *Executor) Execute(ctx context.Context, function, rawParams string) Result {
	e.logger.Info("executing function", "function", function, "params", rawParams)

	params, err := ParseParams(function, rawParams)
	if err != nil {
		e.logger.Error("function execution rejected", "function", function, "error", err.Error())
		return Result{Err: err.Error()}
	}

	switch function {
	case FuncGetUserMetrics:
		profile := e.fetcher.UserMetrics(ctx, params.Username)
		return Result{Profile: &profile}
	case FuncCalculateScore:
		scored := e.scorer.Score(*params.Profile)
		return Result{Profile: &scored}
	case FuncRankUsers:
		return Result{Profiles: RankProfiles(params.Profiles)}
	}

	// ParseParams already rejected unknown names; kept for exhaustiveness.
	return Result{Err: fmt.Sprintf("unknown function %s", function)}
}

// FormatIteration renders one transcript line. Lines always carry the
// iteration number and the action type tag so downstream log scraping can
// match on them; invoke lines add the function, parameters, result and an
// error flag when the result carried one.
func FormatIteration(iteration int, d Decision) string {
	switch d.Kind {
	case DecisionNote:
		return fmt.Sprintf("Iteration %d [thinking]: %s", iteration, d.Note)

	case DecisionInvoke:
		status := ""
		if d.Result != nil && d.Result.Err != "" {
			status = " with an error"
		}
		result := "{}"
		if d.Result != nil {
			result = d.Result.JSON()
		}
		line := fmt.Sprintf("Iteration %d [function_call]: called %s with %s parameters, and the function returned%s %s.",
			iteration, d.Function, d.RawParams, status, result)
		if d.Note != "" {
			return fmt.Sprintf("You thought: %s\n%s", d.Note, line)
		}
		return line

	case DecisionCheck:
		if d.CheckOK {
			return fmt.Sprintf("Iteration %d [verification]: succeeded, proceed with FINAL_ANSWER. %s", iteration, d.Note)
		}
		return fmt.Sprintf("Iteration %d [verification]: failed. %s", iteration, d.Note)

	case DecisionFinal:
		return fmt.Sprintf("Iteration %d [final_answer]: %d ranked users", iteration, len(d.Ranked))
	}

	return fmt.Sprintf("Iteration %d [unknown action]", iteration)
}

// FormatResults renders the final ranking as markdown for verbose output.
func FormatResults(profiles []core.Profile) string {
	var b strings.Builder
	b.WriteString("\n=== Agent Execution Complete ===\n")
	b.WriteString("\n# Instagram User Ranking Results\n")
	for i, p := range profiles {
		score := "N/A"
		if p.Score != nil {
			score = fmt.Sprintf("%.2f", *p.Score)
		}
		fmt.Fprintf(&b, "\n## %d. %s (Score: %s)\n", i+1, p.Username, score)
		fmt.Fprintf(&b, "- Followers: %d\n", p.FollowersCount)
		fmt.Fprintf(&b, "- Engagement Rate: %.2f%%\n", p.EngagementRate)
		fmt.Fprintf(&b, "- Media Count: %d\n", p.MediaCount)
		if p.Error != "" {
			fmt.Fprintf(&b, "- Error: %s\n", p.Error)
		}
	}
	return b.String()
}
