// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/psyche/agent"
	"github.com/pthm-cable/psyche/evolution"
	"github.com/pthm-cable/psyche/params"
	"github.com/pthm-cable/psyche/routine"
	"github.com/pthm-cable/psyche/social"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation   SimulationConfig   `yaml:"simulation"`
	Routine      RoutineConfig      `yaml:"routine"`
	Social       SocialConfig       `yaml:"social"`
	Parameters   params.Set         `yaml:"parameters"`
	Profiles     []params.Profile   `yaml:"profiles"`
	Events       EventsConfig       `yaml:"events"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Bookmarks    BookmarksConfig    `yaml:"bookmarks"`
	RiskRegister RiskRegisterConfig `yaml:"risk_register"`
	Persistence  PersistenceConfig  `yaml:"persistence"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run length and stepping settings.
type SimulationConfig struct {
	DT       float64 `yaml:"dt"`       // tick size in days
	Days     int     `yaml:"days"`     // run length
	Agents   int     `yaml:"agents"`   // population size
	Seed     uint64  `yaml:"seed"`     // shared seed; each agent draws its own stream
	Parallel bool    `yaml:"parallel"` // step agents concurrently
	Workers  int     `yaml:"workers"`  // 0 = GOMAXPROCS
}

// RoutineConfig holds the daily schedule, in hours.
type RoutineConfig struct {
	WakeHour          float64           `yaml:"wake_hour"`
	WorkHour          float64           `yaml:"work_hour"`
	WorkdayHours      float64           `yaml:"workday_hours"`
	HealthySleepHours float64           `yaml:"healthy_sleep_hours"`
	Sleep             agent.SleepDist   `yaml:"sleep"`
	Commute           agent.CommuteDist `yaml:"commute"`
}

// SocialConfig holds link generation settings.
type SocialConfig struct {
	Friends    int               `yaml:"friends"`    // links per agent
	Bullies    int               `yaml:"bullies"`    // links per agent
	Weights    social.WeightDist `yaml:"weights"`    // link weight distribution
	Saturation float64           `yaml:"saturation"` // k in n/(k+n)
}

// EventsConfig holds random external events. Probability 0 disables an event.
type EventsConfig struct {
	ExternalStrategy evolution.Event `yaml:"external_strategy"`
}

// TelemetryConfig holds data collection settings.
type TelemetryConfig struct {
	SampleEvery     int     `yaml:"sample_every"`     // ticks between recorded observations
	WindowDays      float64 `yaml:"window_days"`      // stats window length
	CrisisThreshold float64 `yaml:"crisis_threshold"` // suicidal thought level counted as crisis
	EscapeThreshold float64 `yaml:"escape_threshold"` // escape behavior level counted as an episode
	PerfWindow      int     `yaml:"perf_window"`      // ticks averaged by the perf collector
	LogStats        bool    `yaml:"log_stats"`
	OutputDir       string  `yaml:"output_dir"`
	SnapshotDir     string  `yaml:"snapshot_dir"`
}

// BookmarksConfig holds bookmark detection parameters.
type BookmarksConfig struct {
	HistorySize      int                    `yaml:"history_size"`
	ThoughtSurge     ThoughtSurgeConfig     `yaml:"thought_surge"`
	EscapeOnset      EscapeOnsetConfig      `yaml:"escape_onset"`
	StressRelief     StressReliefConfig     `yaml:"stress_relief"`
	StablePopulation StablePopulationConfig `yaml:"stable_population"`
}

// ThoughtSurgeConfig holds thought surge detection parameters.
type ThoughtSurgeConfig struct {
	Factor  float64 `yaml:"factor"`   // window mean over rolling mean
	MinMean float64 `yaml:"min_mean"` // ignore surges below this level
}

// EscapeOnsetConfig holds escape onset detection parameters.
type EscapeOnsetConfig struct {
	MinShare float64 `yaml:"min_share"` // share of agents above the escape threshold
}

// StressReliefConfig holds stress relief detection parameters.
type StressReliefConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinPeak     float64 `yaml:"min_peak"`
}

// StablePopulationConfig holds stable population detection parameters.
type StablePopulationConfig struct {
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// RiskRegisterConfig holds the ranking of agents by crisis exposure.
type RiskRegisterConfig struct {
	Enabled bool            `yaml:"enabled"`
	Size    int             `yaml:"size"`
	Score   RiskScoreConfig `yaml:"score"`
	Entry   RiskEntryConfig `yaml:"entry"`
}

// RiskScoreConfig holds risk score weights.
type RiskScoreConfig struct {
	CrisisTimeWeight  float64 `yaml:"crisis_time_weight"` // per day above the crisis threshold
	PeakThoughtWeight float64 `yaml:"peak_thought_weight"`
	EpisodesWeight    float64 `yaml:"episodes_weight"` // per crisis onset
	EscapeWeight      float64 `yaml:"escape_weight"`   // per escape episode
}

// RiskEntryConfig holds entry criteria.
type RiskEntryConfig struct {
	MinEpisodes   int     `yaml:"min_episodes"`
	MinCrisisDays float64 `yaml:"min_crisis_days"`
}

// PersistenceConfig holds database settings.
type PersistenceConfig struct {
	Path      string `yaml:"path"` // empty disables the database
	BatchSize int    `yaml:"batch_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Clock        routine.Clock  // schedule in simulation time
	TicksPerDay  int            // round(1/dt)
	TotalTicks   int            // Days * TicksPerDay
	WindowTicks  int            // ticks per stats window
	ProfileIndex map[string]int // name -> index for profile lookup
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Refresh validates the configuration and recomputes derived values. Call it
// after changing fields of a loaded configuration.
func (c *Config) Refresh() error {
	if err := c.validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// validate rejects values the simulation cannot run with.
func (c *Config) validate() error {
	if !(c.Simulation.DT > 0) {
		return fmt.Errorf("simulation.dt must be positive, got %v", c.Simulation.DT)
	}
	if c.Simulation.Agents < 0 || c.Simulation.Days < 0 {
		return fmt.Errorf("simulation.agents and simulation.days must not be negative")
	}
	for _, p := range c.Profiles {
		if _, err := p.Resolve(c.Parameters); err != nil {
			return err
		}
		if p.Share < 0 {
			return fmt.Errorf("profile %s: negative share", p.Name)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Clock = c.Routine.Clock()

	c.Derived.TicksPerDay = max(1, int(1/c.Simulation.DT+0.5))
	c.Derived.TotalTicks = c.Simulation.Days * c.Derived.TicksPerDay
	c.Derived.WindowTicks = max(1, int(c.Telemetry.WindowDays/c.Simulation.DT+0.5))

	// Synthesize the default profile if none specified
	if len(c.Profiles) == 0 {
		c.Profiles = []params.Profile{params.Standard()}
	}
	if c.Telemetry.SampleEvery < 1 {
		c.Telemetry.SampleEvery = 1
	}
	if c.Social.Saturation <= 0 {
		c.Social.Saturation = social.DefaultSaturation
	}

	c.Derived.ProfileIndex = make(map[string]int, len(c.Profiles))
	for i, p := range c.Profiles {
		c.Derived.ProfileIndex[p.Name] = i
	}
}

// Clock converts the hour-based schedule into simulation time.
func (r RoutineConfig) Clock() routine.Clock {
	c := routine.Clock{DayLength: 1}
	c.WakeTime = c.Hours(r.WakeHour)
	c.WorkTime = c.Hours(r.WorkHour)
	c.WorkdayLength = c.Hours(r.WorkdayHours)
	c.HealthySleep = c.Hours(r.HealthySleepHours)
	return c
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (params.Profile, bool) {
	i, ok := c.Derived.ProfileIndex[name]
	if !ok {
		return params.Profile{}, false
	}
	return c.Profiles[i], true
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
