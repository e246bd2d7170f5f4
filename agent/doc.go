// Package agent implements the analysis loop that ranks Instagram profiles:
// perception (parsing model replies into intents), decision (choosing the
// next action with redundancy guards), action (fetch, score, rank) and the
// orchestrator driving the iterations against session memory.
package agent
