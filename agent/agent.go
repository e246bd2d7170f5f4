package agent

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/logging"
	"github.com/instarank/instarank/memory"
	"github.com/instarank/instarank/model"
)

// Options configure an Agent.
type Options struct {
	// MaxIterations bounds the analysis loop. Hitting the bound is a
	// degraded success returning partial results, not a failure.
	MaxIterations int
	// Verbose prints iteration traces and the final ranking to Output.
	Verbose bool
	// Output receives verbose traces. Defaults to os.Stdout.
	Output io.Writer
	// Weights tune the scoring function.
	Weights Weights
	// Logger receives structured progress logs.
	Logger logging.Logger
}

// WithMaxIterations sets the iteration bound.
func WithMaxIterations(n int) func(*Options) {
	return func(o *Options) { o.MaxIterations = n }
}

// WithVerbose toggles human readable iteration traces.
func WithVerbose(v bool) func(*Options) {
	return func(o *Options) { o.Verbose = v }
}

// WithOutput sets the destination for verbose traces.
func WithOutput(w io.Writer) func(*Options) {
	return func(o *Options) { o.Output = w }
}

// WithWeights overrides the scoring weights.
func WithWeights(w Weights) func(*Options) {
	return func(o *Options) { o.Weights = w }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(*Options) {
	return func(o *Options) { o.Logger = l }
}

// Agent orchestrates the analysis loop: perception feeds decision, decision
// feeds action, action results merge back into memory, until a terminal
// state or the iteration budget is hit. Execution is strictly sequential;
// one iteration completes, including its blocking model and fetch calls,
// before the next begins.
type Agent struct {
	perceiver *Perceiver
	decider   *Decider
	executor  *Executor
	logger    logging.Logger
	opts      Options
}

// New constructs an Agent around a language model and a metrics fetcher.
// Defaults: 20 iterations, standard weights, silent.
func New(m model.Model, fetcher Fetcher, optFns ...func(*Options)) *Agent {
	opts := Options{
		MaxIterations: 20,
		Weights:       DefaultWeights(),
		Output:        os.Stdout,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Agent{
		perceiver: NewPerceiver(m, opts.Logger),
		decider:   NewDecider(opts.Logger),
		executor:  NewExecutor(fetcher, NewScorer(opts.Weights), opts.Logger),
		logger:    opts.Logger,
		opts:      opts,
	}
}

// Analyze runs the agent loop over the target usernames and returns the
// ranked profiles. It returns partial results rather than an error whenever
// possible; the only error surfaced is context cancellation.
func (a *Agent) Analyze(ctx context.Context, usernames []string) ([]core.Profile, error) {
	runID := uuid.NewString()
	mem := memory.New(a.logger)
	baseQuery := fmt.Sprintf("Analyze these Instagram users and rank them based on their metrics: %s", strings.Join(usernames, ", "))
	query := baseQuery
	ranked := false

	a.logger.Info("starting analysis", "run_id", runID, "users", len(usernames), "max_iterations", a.opts.MaxIterations)

	for iteration := 1; iteration <= a.opts.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return mem.Profiles(), ctx.Err()
		default:
		}

		a.printf("\n---------------------------- Iteration %d ----------------------------\n", iteration)

		intent := a.perceiver.Perceive(ctx, systemPrompt, query, mem.Snapshot())
		a.printf("Model reply type: %s\n", intent.Kind)

		dec := a.decider.Decide(intent, mem, usernames)

		switch dec.Kind {
		case DecisionInvoke:
			if dec.Function == FuncRankUsers {
				if next, skipped := a.gateRanking(iteration, ranked, mem, usernames, baseQuery); skipped {
					query = next
					continue
				}
			}

			result := a.executor.Execute(ctx, dec.Function, dec.RawParams)
			dec.Result = &result
			mem.AppendTranscript(FormatIteration(iteration, dec))
			a.printf("  Result: %s\n", result.JSON())

			query, ranked = a.merge(dec.Function, result, mem, usernames, baseQuery, ranked)
			if ranked {
				a.logger.Info("ranking completed, moving to verification", "run_id", runID, "iteration", iteration)
			}

		case DecisionCheck:
			if dec.CheckOK {
				a.logger.Info("verification succeeded", "run_id", runID, "iteration", iteration)
				final := mem.Profiles()
				a.printf("%s\n", FormatResults(final))
				return final, nil
			}
			mem.AppendTranscript(FormatIteration(iteration, dec))
			query = steer(baseQuery, "What should I do next?", mem, usernames, ranked)

		case DecisionFinal:
			a.logger.Info("final answer received", "run_id", runID, "iteration", iteration, "ranked_users", len(dec.Ranked))
			a.printf("%s\n", FormatResults(dec.Ranked))
			return dec.Ranked, nil

		case DecisionNote:
			mem.AppendTranscript(FormatIteration(iteration, dec))
			query = steer(baseQuery, "What should I do next?", mem, usernames, ranked)
		}
	}

	a.logger.Warn("reached maximum iterations without final answer", "run_id", runID, "max_iterations", a.opts.MaxIterations)
	return mem.Profiles(), nil
}

// gateRanking applies the two ranking guards: never rank twice, never rank
// before every target is processed and scored. When a guard trips it appends
// a transcript note and returns the steered query for the next iteration.
func (a *Agent) gateRanking(iteration int, ranked bool, mem *memory.Memory, usernames []string, baseQuery string) (string, bool) {
	if ranked {
		a.logger.Info("skipping redundant ranking call", "iteration", iteration)
		mem.AppendTranscript(fmt.Sprintf("Iteration %d [function_call]: skipped redundant ranking, ranking already completed", iteration))
		return steer(baseQuery, "Ranking is already complete. Please verify the results and provide a final answer.", mem, usernames, true), true
	}

	progress := EvaluateProgress(mem, usernames)
	if !progress.ReadyForRanking {
		pending := append(append([]string{}, progress.Unprocessed...), progress.Unscored...)
		a.logger.Info("skipping premature ranking call", "iteration", iteration, "pending", strings.Join(pending, ","))
		mem.AppendTranscript(fmt.Sprintf("Iteration %d [function_call]: skipped premature ranking, still unscored: %s",
			iteration, strings.Join(pending, ", ")))
		return steer(baseQuery, fmt.Sprintf("Please calculate scores for these users first: %s", strings.Join(pending, ", ")),
			mem, usernames, false), true
	}

	return "", false
}

// merge folds an execution result into memory per the function contract and
// returns the steered query plus the updated ranked flag.
func (a *Agent) merge(function string, result Result, mem *memory.Memory, usernames []string, baseQuery string, ranked bool) (string, bool) {
	switch function {
	case FuncGetUserMetrics:
		if result.Profile != nil {
			mem.RecordMetrics(*result.Profile)
		}

	case FuncCalculateScore:
		if result.Profile != nil && result.Profile.Score != nil {
			mem.RecordScore(result.Profile.Username, *result.Profile.Score)
			if mem.AllProcessed(usernames) && mem.AllScored() {
				return steer(baseQuery, "All users have metrics and scores. Please rank the users now.", mem, usernames, ranked), ranked
			}
		}

	case FuncRankUsers:
		if result.Err == "" {
			mem.ReplaceAll(result.Profiles)
			if mem.AllProcessed(usernames) && mem.AllScored() {
				return steer(baseQuery, "All users have been ranked. Please verify the results and provide a final answer.", mem, usernames, true), true
			}
		}
	}

	return steer(baseQuery, "What should I do next?", mem, usernames, ranked), ranked
}

// steer builds the next query: base query, a directive and a status summary
// re-derived fresh from memory.
func steer(baseQuery, directive string, mem *memory.Memory, targets []string, ranked bool) string {
	progress := EvaluateProgress(mem, targets)
	return fmt.Sprintf("%s\n\n%s\n\n%s", baseQuery, directive, progress.Summary(ranked))
}

func (a *Agent) printf(format string, args ...any) {
	if !a.opts.Verbose {
		return
	}
	fmt.Fprintf(a.opts.Output, format, args...)
}
