package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/social"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		RunID:   "run-1",
		Seed:    42,
		Tick:    1440,
		Time:    1,
		Agents: []AgentState{
			{
				Observation: agent.Observation{
					AgentID:         1,
					Step:            1440,
					Time:            1,
					Type:            "standard",
					State:           "sleep",
					Stress:          0.31,
					SuicidalThought: 0.02,
				},
				Commute: 0.02,
				Friends: []social.Link{{Peer: 2, Weight: 0.4}},
				Lifetime: &LifetimeStatsJSON{
					PeakThought: 0.6,
					CrisisDays:  0.1,
					Episodes:    1,
				},
			},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkThoughtSurge,
			Tick:        1440,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Seed != snapshot.Seed || loaded.RunID != snapshot.RunID {
		t.Errorf("header mismatch: got %+v", loaded)
	}
	if loaded.Tick != snapshot.Tick {
		t.Errorf("Tick mismatch: got %d, want %d", loaded.Tick, snapshot.Tick)
	}
	if len(loaded.Agents) != 1 {
		t.Fatalf("Agents count mismatch: got %d, want 1", len(loaded.Agents))
	}
	got := loaded.Agents[0]
	if got.Observation != snapshot.Agents[0].Observation {
		t.Errorf("observation mismatch:\n%+v\n%+v", got.Observation, snapshot.Agents[0].Observation)
	}
	if len(got.Friends) != 1 || got.Friends[0] != (social.Link{Peer: 2, Weight: 0.4}) {
		t.Errorf("friends = %+v", got.Friends)
	}
	if got.Lifetime == nil || got.Lifetime.Episodes != 1 {
		t.Errorf("lifetime = %+v", got.Lifetime)
	}
	if loaded.Bookmark == nil {
		t.Error("Bookmark not loaded")
	} else if loaded.Bookmark.Type != snapshot.Bookmark.Type {
		t.Errorf("Bookmark type mismatch: got %s, want %s", loaded.Bookmark.Type, snapshot.Bookmark.Type)
	}
}

func TestSnapshotObservationFieldsFlattened(t *testing.T) {
	tmpDir := t.TempDir()
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Agents:  []AgentState{{Observation: agent.Observation{AgentID: 3, State: "work"}}},
	}
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"agent_id": 3`, `"state": "work"`, `"suicidal_thought"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("snapshot JSON missing %s", key)
		}
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Bookmark: &Bookmark{
			Type: BookmarkEscapeOnset,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_escape_onset.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	snapshotNoBookmark := &Snapshot{
		Version: SnapshotVersion,
		Tick:    3000,
	}

	path, err = SaveSnapshot(snapshotNoBookmark, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshot_WrongVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for unknown snapshot version")
	}
}

func TestLifetimeStatsJSONRoundTrip(t *testing.T) {
	ls := &LifetimeStats{
		Profile:     "volatile",
		PeakThought: 0.8,
		CrisisTime:  0.25,
		Episodes:    2,
		inCrisis:    true,
	}
	back := ls.ToJSON().FromJSON("volatile")
	if *back != *ls {
		t.Errorf("round trip = %+v, want %+v", back, ls)
	}
	if (*LifetimeStats)(nil).ToJSON() != nil {
		t.Error("nil stats should convert to nil")
	}
}
