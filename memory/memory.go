// Package memory holds the mutable session state for one analysis run: the
// working profile collection, the processed and scored identifier sets and
// the append-only transcript of iteration summaries.
//
// Invariants: processed is always a superset of scored, and every scored
// username has a non-nil Score on its record. A Memory is created per
// analysis request and discarded afterwards.
package memory

import (
	"sync"

	"github.com/instarank/instarank/core"
	"github.com/instarank/instarank/logging"
)

// Memory is the agent's session state. The agent loop is strictly
// sequential, but the store is locked anyway so that snapshot readers and a
// future parallel fetch path stay safe.
type Memory struct {
	mu         sync.RWMutex
	profiles   []core.Profile
	processed  map[string]struct{}
	scored     map[string]struct{}
	transcript []string
	logger     logging.Logger
}

// Snapshot is a read-only bundle of memory contents handed to the perception
// layer. JSON field names match the prompt context format.
type Snapshot struct {
	Profiles   []core.Profile `json:"users_metrics_list"`
	Transcript []string       `json:"iteration_responses"`
	Processed  []string       `json:"processed_usernames"`
	Scored     []string       `json:"scored_users"`
}

// New constructs an empty Memory.
func New(logger logging.Logger) *Memory {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Memory{
		processed: make(map[string]struct{}),
		scored:    make(map[string]struct{}),
		logger:    logger,
	}
}

// RecordMetrics upserts a profile by username. An existing record is fully
// replaced; a new username is appended and marked processed. Profiles
// without a username are dropped with a warning.
func (m *Memory) RecordMetrics(p core.Profile) {
	if p.Username == "" {
		m.logger.Warn("attempted to store metrics without username")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.profiles {
		if m.profiles[i].Username == p.Username {
			m.profiles[i] = p
			m.logger.Info("updated metrics", "username", p.Username)
			return
		}
	}

	m.profiles = append(m.profiles, p)
	m.processed[p.Username] = struct{}{}
	m.logger.Info("stored metrics", "username", p.Username)
}

// RecordScore sets the score on an existing record and marks the username
// scored. Unknown usernames are a warned no-op; a record is never fabricated
// from a score alone.
func (m *Memory) RecordScore(username string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.profiles {
		if m.profiles[i].Username == username {
			m.profiles[i].SetScore(score)
			m.scored[username] = struct{}{}
			m.logger.Info("stored score", "username", username, "score", score)
			return
		}
	}
	m.logger.Warn("attempted to store score for unknown user", "username", username)
}

// ReplaceAll swaps the working collection wholesale, as after a ranking
// operation. Processed and scored sets are untouched.
func (m *Memory) ReplaceAll(profiles []core.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make([]core.Profile, len(profiles))
	copy(m.profiles, profiles)
	m.logger.Info("replaced profile list", "count", len(profiles))
}

// AppendTranscript appends one iteration summary line, no dedup.
func (m *Memory) AppendTranscript(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcript = append(m.transcript, line)
}

// Profiles returns a copy of the working collection.
func (m *Memory) Profiles() []core.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Profile, len(m.profiles))
	copy(out, m.profiles)
	return out
}

// Profile returns the record for a username, if present.
func (m *Memory) Profile(username string) (core.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Username == username {
			return p, true
		}
	}
	return core.Profile{}, false
}

// Processed reports whether metrics have been recorded for the username at
// least once in this session.
func (m *Memory) Processed(username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.processed[username]
	return ok
}

// Transcript returns a copy of the transcript lines.
func (m *Memory) Transcript() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.transcript))
	copy(out, m.transcript)
	return out
}

// Unprocessed returns, in input order, the targets that have no metrics yet.
func (m *Memory) Unprocessed(targets []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, u := range targets {
		if _, ok := m.processed[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

// Unscored returns the records that still need a score. Placeholder records
// from failed fetches are exempt; they carry no metrics to score.
func (m *Memory) Unscored() []core.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Profile
	for _, p := range m.profiles {
		if p.HasError() {
			continue
		}
		if _, ok := m.scored[p.Username]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// AllProcessed reports whether every target has recorded metrics.
func (m *Memory) AllProcessed(targets []string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range targets {
		if _, ok := m.processed[u]; !ok {
			return false
		}
	}
	return true
}

// AllScored reports whether every scoreable record is scored. Placeholder
// records from failed fetches do not block completion.
func (m *Memory) AllScored() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.HasError() {
			continue
		}
		if _, ok := m.scored[p.Username]; !ok {
			return false
		}
	}
	return true
}

// Snapshot returns a read-only bundle of the current state for the
// perception prompt.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Profiles:   make([]core.Profile, len(m.profiles)),
		Transcript: make([]string, len(m.transcript)),
		Processed:  make([]string, 0, len(m.processed)),
		Scored:     make([]string, 0, len(m.scored)),
	}
	copy(snap.Profiles, m.profiles)
	copy(snap.Transcript, m.transcript)
	for u := range m.processed {
		snap.Processed = append(snap.Processed, u)
	}
	for u := range m.scored {
		snap.Scored = append(snap.Scored, u)
	}
	return snap
}
