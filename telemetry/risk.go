package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pthm-cable/psyche/config"
)

// RiskEntry is one agent's crisis exposure.
type RiskEntry struct {
	AgentID        int     `json:"agent_id"`
	Profile        string  `json:"profile"`
	Score          float64 `json:"score"`
	CrisisDays     float64 `json:"crisis_days"`
	PeakThought    float64 `json:"peak_thought"`
	PeakBehavior   float64 `json:"peak_behavior"`
	Episodes       int     `json:"episodes"`
	EscapeEpisodes int     `json:"escape_episodes"`
}

// RiskRegister ranks the agents with the greatest crisis exposure, highest
// score first.
type RiskRegister struct {
	entries []RiskEntry
	maxSize int
}

// NewRiskRegister creates a register holding at most maxSize agents.
func NewRiskRegister(maxSize int) *RiskRegister {
	if maxSize < 1 {
		maxSize = 1
	}
	return &RiskRegister{
		entries: make([]RiskEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider evaluates an agent's lifetime stats for entry.
// Returns true if the agent was added to the register.
func (r *RiskRegister) Consider(agentID int, stats *LifetimeStats) bool {
	if stats == nil {
		return false
	}
	cfg := config.Cfg().RiskRegister

	if !meetsEntryCriteria(stats, cfg.Entry) {
		return false
	}

	entry := RiskEntry{
		AgentID:        agentID,
		Profile:        stats.Profile,
		Score:          calculateScore(stats, cfg.Score),
		CrisisDays:     stats.CrisisTime,
		PeakThought:    stats.PeakThought,
		PeakBehavior:   stats.PeakBehavior,
		Episodes:       stats.Episodes,
		EscapeEpisodes: stats.EscapeEpisodes,
	}
	var added bool
	r.entries, added = r.insertEntry(r.entries, entry)
	return added
}

// meetsEntryCriteria checks if an agent qualifies for the register.
func meetsEntryCriteria(stats *LifetimeStats, cfg config.RiskEntryConfig) bool {
	if stats.Episodes < cfg.MinEpisodes {
		return false
	}
	return stats.CrisisTime >= cfg.MinCrisisDays
}

// calculateScore computes the weighted risk score.
func calculateScore(stats *LifetimeStats, cfg config.RiskScoreConfig) float64 {
	score := stats.CrisisTime * cfg.CrisisTimeWeight
	score += stats.PeakThought * cfg.PeakThoughtWeight
	score += float64(stats.Episodes) * cfg.EpisodesWeight
	score += float64(stats.EscapeEpisodes) * cfg.EscapeWeight
	return score
}

// insertEntry adds an entry, maintaining sorted order by score.
// If the register is full, the lowest-score entry is removed.
func (r *RiskRegister) insertEntry(entries []RiskEntry, entry RiskEntry) ([]RiskEntry, bool) {
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].Score < entry.Score
	})

	if len(entries) >= r.maxSize && idx >= r.maxSize {
		return entries, false
	}

	entries = append(entries, RiskEntry{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = entry

	if len(entries) > r.maxSize {
		entries = entries[:r.maxSize]
	}
	return entries, true
}

// Entries returns a copy of the ranking.
func (r *RiskRegister) Entries() []RiskEntry {
	out := make([]RiskEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Size returns the number of ranked agents.
func (r *RiskRegister) Size() int {
	return len(r.entries)
}

// TopScore returns the highest score, or 0 if the register is empty.
func (r *RiskRegister) TopScore() float64 {
	if len(r.entries) == 0 {
		return 0
	}
	return r.entries[0].Score
}

// MarshalJSON serializes the ranking to JSON.
func (r *RiskRegister) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(r.entries, "", "  ")
}

// LoadRiskRegisterFromFile reads a ranking written by MarshalJSON.
func LoadRiskRegisterFromFile(path string) (*RiskRegister, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading risk register: %w", err)
	}

	var entries []RiskEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing risk register JSON: %w", err)
	}

	r := NewRiskRegister(len(entries))
	for _, e := range entries {
		r.entries, _ = r.insertEntry(r.entries, e)
	}
	return r, nil
}
