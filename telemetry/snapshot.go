package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/social"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population state at one tick.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Seed    uint64 `json:"seed"`

	Tick int64   `json:"tick"`
	Time float64 `json:"time"`

	Agents []AgentState `json:"agents"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's observable state and its fixed setup.
type AgentState struct {
	agent.Observation

	Commute float64       `json:"commute"`
	Friends []social.Link `json:"friends,omitempty"`
	Bullies []social.Link `json:"bullies,omitempty"`

	// Lifetime stats
	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	PeakStress     float64 `json:"peak_stress"`
	PeakThought    float64 `json:"peak_thought"`
	PeakBehavior   float64 `json:"peak_behavior"`
	CrisisDays     float64 `json:"crisis_days"`
	Episodes       int     `json:"episodes"`
	EscapeEpisodes int     `json:"escape_episodes"`
	InCrisis       bool    `json:"in_crisis"`
	LastOnsetTick  int64   `json:"last_onset_tick"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		PeakStress:     ls.PeakStress,
		PeakThought:    ls.PeakThought,
		PeakBehavior:   ls.PeakBehavior,
		CrisisDays:     ls.CrisisTime,
		Episodes:       ls.Episodes,
		EscapeEpisodes: ls.EscapeEpisodes,
		InCrisis:       ls.inCrisis,
		LastOnsetTick:  ls.LastOnsetTick,
	}
}

// FromJSON converts the JSON form back to LifetimeStats.
func (lsj *LifetimeStatsJSON) FromJSON(profile string) *LifetimeStats {
	if lsj == nil {
		return nil
	}
	return &LifetimeStats{
		Profile:        profile,
		PeakStress:     lsj.PeakStress,
		PeakThought:    lsj.PeakThought,
		PeakBehavior:   lsj.PeakBehavior,
		CrisisTime:     lsj.CrisisDays,
		Episodes:       lsj.Episodes,
		EscapeEpisodes: lsj.EscapeEpisodes,
		inCrisis:       lsj.InCrisis,
		LastOnsetTick:  lsj.LastOnsetTick,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
