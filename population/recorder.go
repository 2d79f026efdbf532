package population

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/config"
	"github.com/pthm-cable/psyche/persistence"
	"github.com/pthm-cable/psyche/telemetry"
)

// Recorder collects telemetry while a population runs: per-agent lifetime
// stats, windowed population stats, bookmarks, performance timing, and the
// sampled trajectories written to CSV and the database.
type Recorder struct {
	collector *telemetry.Collector
	lifetime  *telemetry.LifetimeTracker
	bookmarks *telemetry.BookmarkDetector
	risk      *telemetry.RiskRegister
	perf      *telemetry.PerfCollector

	output *telemetry.OutputManager
	db     *persistence.DB
	runID  string

	sampleEvery int64
	logStats    bool
	snapshotDir string
	batchSize   int

	pending []agent.Observation
	windows []telemetry.WindowStats
	marks   []telemetry.Bookmark
}

// NewRecorder creates a recorder. output and db may be nil to disable CSV
// output and persistence.
func NewRecorder(cfg *config.Config, output *telemetry.OutputManager, db *persistence.DB, runID string) *Recorder {
	t := cfg.Telemetry
	r := &Recorder{
		collector:   telemetry.NewCollector(t.WindowDays, cfg.Simulation.DT, t.CrisisThreshold, t.EscapeThreshold),
		lifetime:    telemetry.NewLifetimeTracker(t.CrisisThreshold, t.EscapeThreshold),
		bookmarks:   telemetry.NewBookmarkDetector(cfg.Bookmarks.HistorySize),
		perf:        telemetry.NewPerfCollector(t.PerfWindow),
		output:      output,
		db:          db,
		runID:       runID,
		sampleEvery: int64(max(1, t.SampleEvery)),
		logStats:    t.LogStats,
		snapshotDir: t.SnapshotDir,
		batchSize:   max(1, cfg.Persistence.BatchSize),
	}
	if cfg.RiskRegister.Enabled {
		r.risk = telemetry.NewRiskRegister(cfg.RiskRegister.Size)
	}
	return r
}

// Start registers the population's agents and records their initial state.
func (r *Recorder) Start(p *Population) error {
	obs := p.Observe()
	for _, o := range obs {
		r.lifetime.Register(o.AgentID, o.Type)
		r.lifetime.Observe(o, 0)
	}
	return r.record(obs)
}

// Hooks returns the run hooks that feed the recorder.
func (r *Recorder) Hooks() Hooks {
	return Hooks{
		BeforeTick: func(*Population) {
			r.perf.StartTick()
			r.perf.StartPhase(telemetry.PhaseStep)
		},
		AfterTick: r.afterTick,
		OnDay:     r.onDay,
	}
}

func (r *Recorder) afterTick(p *Population, res StepResult) error {
	r.perf.StartPhase(telemetry.PhaseObserve)
	obs := p.Observe()

	r.perf.StartPhase(telemetry.PhaseTrack)
	r.collector.RecordTransitions(res.Transitions)
	r.collector.RecordExternalEvents(res.Events)
	for _, o := range obs {
		for _, ev := range r.lifetime.Observe(o, res.DT) {
			r.collector.Record(ev)
		}
	}

	r.perf.StartPhase(telemetry.PhaseRecord)
	if res.Tick%r.sampleEvery == 0 {
		if err := r.record(obs); err != nil {
			return err
		}
	}

	r.perf.StartPhase(telemetry.PhaseTelemetry)
	if r.collector.ShouldFlush(res.Tick) {
		if err := r.flush(p, res.Tick, obs); err != nil {
			return err
		}
	}

	r.perf.EndTick(len(obs))
	return nil
}

// record writes sampled observations to CSV and queues them for the database.
func (r *Recorder) record(obs []agent.Observation) error {
	if err := r.output.WriteObservations(obs); err != nil {
		return err
	}
	if r.db == nil {
		return nil
	}
	r.pending = append(r.pending, obs...)
	if len(r.pending) >= r.batchSize {
		return r.flushPending()
	}
	return nil
}

func (r *Recorder) flushPending() error {
	if r.db == nil || len(r.pending) == 0 {
		return nil
	}
	if err := r.db.SaveObservations(r.runID, r.pending); err != nil {
		return fmt.Errorf("saving observations: %w", err)
	}
	r.pending = r.pending[:0]
	return nil
}

// flush closes the stats window and checks it for bookmarks.
func (r *Recorder) flush(p *Population, tick int64, obs []agent.Observation) error {
	stats := r.collector.Flush(tick, obs)
	perfStats := r.perf.Stats()
	r.windows = append(r.windows, stats)

	if r.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := r.output.WriteWindow(stats); err != nil {
		return err
	}
	if err := r.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		return err
	}

	bookmarks := r.bookmarks.Check(stats)
	for _, bm := range bookmarks {
		if r.logStats {
			bm.LogBookmark()
		}
		if err := r.output.WriteBookmark(bm); err != nil {
			return err
		}
		if r.snapshotDir != "" {
			r.saveSnapshot(p, &bm)
		}
	}
	r.marks = append(r.marks, bookmarks...)

	if r.db != nil && len(bookmarks) > 0 {
		if err := r.db.SaveBookmarks(r.runID, bookmarks); err != nil {
			return fmt.Errorf("saving bookmarks: %w", err)
		}
	}
	return nil
}

func (r *Recorder) onDay(p *Population, day int) error {
	slog.Info("day complete",
		"day", day,
		"tick", p.Tick(),
		"in_crisis", r.lifetime.InCrisisCount(),
		"agents", r.lifetime.Count(),
	)
	return nil
}

// Finish ranks the agents by crisis exposure, writes the remaining output,
// and saves a final snapshot when snapshots are enabled.
func (r *Recorder) Finish(p *Population) error {
	if err := r.flushPending(); err != nil {
		return err
	}

	if r.risk != nil {
		for id, stats := range r.lifetime.All() {
			r.risk.Consider(id, stats)
		}
		if err := r.output.WriteRiskRegister(r.risk); err != nil {
			return err
		}
		slog.Info("risk register",
			"ranked", r.risk.Size(),
			"top_score", r.risk.TopScore(),
		)
	}

	if r.snapshotDir != "" {
		r.saveSnapshot(p, nil)
	}

	if r.db != nil {
		if err := r.db.FinishRun(r.runID, p.Tick()); err != nil {
			return err
		}
	}
	return nil
}

// saveSnapshot creates and saves a snapshot to disk.
func (r *Recorder) saveSnapshot(p *Population, bookmark *telemetry.Bookmark) {
	snapshot := r.createSnapshot(p, bookmark)

	path, err := telemetry.SaveSnapshot(snapshot, r.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", p.Tick())
}

// createSnapshot builds a snapshot from the current state.
func (r *Recorder) createSnapshot(p *Population, bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:  telemetry.SnapshotVersion,
		RunID:    r.runID,
		Seed:     p.Seed(),
		Tick:     p.Tick(),
		Time:     p.Time(),
		Bookmark: bookmark,
	}

	for _, a := range p.Agents() {
		network := a.Network()
		snapshot.Agents = append(snapshot.Agents, telemetry.AgentState{
			Observation: a.Observe(),
			Commute:     a.Commute(),
			Friends:     network.Friends,
			Bullies:     network.Bullies,
			Lifetime:    r.lifetime.Get(a.ID()).ToJSON(),
		})
	}

	return snapshot
}

// Lifetime returns the per-agent lifetime tracker.
func (r *Recorder) Lifetime() *telemetry.LifetimeTracker { return r.lifetime }

// Risk returns the risk register, or nil when it is disabled.
func (r *Recorder) Risk() *telemetry.RiskRegister { return r.risk }

// Windows returns the stats windows flushed so far.
func (r *Recorder) Windows() []telemetry.WindowStats { return r.windows }

// Bookmarks returns the bookmarks triggered so far.
func (r *Recorder) Bookmarks() []telemetry.Bookmark { return r.marks }
