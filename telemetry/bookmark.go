package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/psyche/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkThoughtSurge     BookmarkType = "thought_surge"
	BookmarkEscapeOnset      BookmarkType = "escape_onset"
	BookmarkStressRelief     BookmarkType = "stress_relief"
	BookmarkStablePopulation BookmarkType = "stable_population"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" db:"type" json:"type"`
	Tick        int64        `csv:"tick" db:"tick" json:"tick"`
	Time        float64      `csv:"time" db:"time" json:"time"`
	Description string       `csv:"description" db:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"time", b.Time,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in the population's trajectory.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentStressPeak   float64 // peak mean stress in recent history
	lastEscapeShare    float64
	stableWindowsCount int // consecutive windows with stable aversion
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	cfg := config.Cfg().Bookmarks
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Thought surge: mean suicidal thought > factor x rolling average
		if b := bd.checkThoughtSurge(stats, cfg.ThoughtSurge); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Escape onset: share of escaping agents rises from zero
		if b := bd.checkEscapeOnset(stats, cfg.EscapeOnset); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stress relief: mean stress dropped from recent peak
		if b := bd.checkStressRelief(stats, cfg.StressRelief); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable population: low variance in mean aversion over several windows
		if b := bd.checkStablePopulation(stats, cfg.StablePopulation); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.StressMean > bd.recentStressPeak {
		bd.recentStressPeak = stats.StressMean
	}
	bd.lastEscapeShare = stats.EscapeShare

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkThoughtSurge(stats WindowStats, cfg config.ThoughtSurgeConfig) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.ThoughtMean
	}
	avg := total / float64(len(history))
	if stats.ThoughtMean < cfg.MinMean || stats.ThoughtMean <= avg*cfg.Factor {
		return nil
	}

	return &Bookmark{
		Type:        BookmarkThoughtSurge,
		Tick:        stats.WindowEndTick,
		Time:        stats.SimTime,
		Description: fmt.Sprintf("Mean suicidal thought %.3f against rolling average %.3f", stats.ThoughtMean, avg),
	}
}

func (bd *BookmarkDetector) checkEscapeOnset(stats WindowStats, cfg config.EscapeOnsetConfig) *Bookmark {
	if bd.lastEscapeShare > 0 || stats.EscapeShare < cfg.MinShare || stats.EscapeShare == 0 {
		return nil
	}

	return &Bookmark{
		Type:        BookmarkEscapeOnset,
		Tick:        stats.WindowEndTick,
		Time:        stats.SimTime,
		Description: fmt.Sprintf("%.0f%% of agents show escape behavior", stats.EscapeShare*100),
	}
}

func (bd *BookmarkDetector) checkStressRelief(stats WindowStats, cfg config.StressReliefConfig) *Bookmark {
	if bd.recentStressPeak < cfg.MinPeak || bd.recentStressPeak == 0 {
		return nil
	}

	drop := 1.0 - stats.StressMean/bd.recentStressPeak
	if drop <= cfg.DropPercent {
		return nil
	}

	// Reset peak after relief
	oldPeak := bd.recentStressPeak
	bd.recentStressPeak = stats.StressMean

	return &Bookmark{
		Type:        BookmarkStressRelief,
		Tick:        stats.WindowEndTick,
		Time:        stats.SimTime,
		Description: fmt.Sprintf("Mean stress fell %.0f%% from peak %.3f to %.3f", drop*100, oldPeak, stats.StressMean),
	}
}

func (bd *BookmarkDetector) checkStablePopulation(stats WindowStats, cfg config.StablePopulationConfig) *Bookmark {
	if stats.Agents == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	if len(bd.getHistory()) < 4 {
		return nil
	}

	// Check variance in recent windows, including this one
	recent := []float64{stats.AversionMean}
	for _, h := range bd.recent(3) {
		recent = append(recent, h.AversionMean)
	}
	var sum float64
	for _, v := range recent {
		sum += v
	}
	mean := sum / float64(len(recent))

	var variance float64
	for _, v := range recent {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(recent))

	cv2 := 0.0
	if mean > 0 {
		cv2 = variance / (mean * mean)
	}

	if cv2 < cfg.CVThreshold*cfg.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == cfg.StableWindows { // trigger exactly once
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			Tick:        stats.WindowEndTick,
			Time:        stats.SimTime,
			Description: fmt.Sprintf("Mean aversion stable near %.3f over %d windows", mean, cfg.StableWindows),
		}
	}

	return nil
}

// recent returns up to n of the most recent windows, newest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	n = min(n, count)
	out := make([]WindowStats, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, bd.history[(bd.historyIdx-i+bd.historySize)%bd.historySize])
	}
	return out
}
