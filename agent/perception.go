package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/logging"
	"github.com/instarank/instarank/memory"
	"github.com/instarank/instarank/model"
)

// Perceiver turns model replies into structured intents. Parsing is a
// deterministic marker parser; the model is only used to produce the raw
// text.
type Perceiver struct {
	model  model.Model
	logger logging.Logger
}

// NewPerceiver constructs a Perceiver around a model.
func NewPerceiver(m model.Model, logger logging.Logger) *Perceiver {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Perceiver{model: m, logger: logger}
}

// Perceive runs one model turn and parses the reply. A transport failure
// becomes a failure intent instead of an error, so the loop can steer the
// model into retrying.
func (p *Perceiver) Perceive(ctx context.Context, instructions, query string, snap memory.Snapshot) core.Intent {
	resp, err := p.model.Generate(ctx, model.Request{
		Instructions: instructions,
		Prompt:       buildPrompt(query, snap),
	})
	if err != nil {
		p.logger.Error("model invocation failed", "error", err.Error())
		return core.FailureIntent(err.Error())
	}

	intent := ParseReply(resp.Text)
	p.logger.Info("processed model reply", "intent", intent.Kind.String())
	return intent
}

// buildPrompt concatenates the query with the transcript history and the
// current working profile list.
func buildPrompt(query string, snap memory.Snapshot) string {
	var b strings.Builder
	b.WriteString(query)
	if len(snap.Transcript) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(snap.Transcript, " "))
	}
	if profiles, err := json.Marshal(snap.Profiles); err == nil {
		fmt.Fprintf(&b, "\nCurrent users_metrics_list: %s", profiles)
	}
	return b.String()
}

// ParseReply classifies a raw model reply into an Intent. Rules, in priority
// order:
//
//  1. A FUNCTION_CALL marker after position 0 with a THINKING prefix splits
//     into a composite intent.
//  2. A FUNCTION_CALL marker after position 0 without a THINKING prefix is
//     parsed from the marker onward; only its first line counts.
//  3. A reply starting with exactly one marker parses as that intent.
//  4. Anything else is malformed, raw text retained.
func ParseReply(raw string) core.Intent {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, core.MarkerToolCall); idx > 0 {
		callLine := firstLine(text[idx:])
		if strings.HasPrefix(text, core.MarkerNote) {
			note := stripMarker(text[:idx], core.MarkerNote)
			name, params := splitCall(callLine)
			return core.CompositeIntent(note, name, params)
		}
		text = callLine
	}

	switch {
	case strings.HasPrefix(text, core.MarkerNote):
		return core.NoteIntent(stripMarker(text, core.MarkerNote))
	case strings.HasPrefix(text, core.MarkerToolCall):
		name, params := splitCall(text)
		return core.ToolCallIntent(name, params)
	case strings.HasPrefix(text, core.MarkerCheck):
		return core.CheckIntent(stripMarker(text, core.MarkerCheck))
	case strings.HasPrefix(text, core.MarkerFinal):
		return core.FinalIntent(stripMarker(text, core.MarkerFinal))
	default:
		return core.MalformedIntent(text)
	}
}

// splitCall splits a "FUNCTION_CALL: name|params" line into name and params.
// A missing separator yields empty params.
func splitCall(line string) (name, params string) {
	info := stripMarker(line, core.MarkerToolCall)
	name, params, found := strings.Cut(info, "|")
	name = strings.TrimSpace(name)
	if !found {
		return name, ""
	}
	return name, strings.TrimSpace(params)
}

func stripMarker(text, marker string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), marker))
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
