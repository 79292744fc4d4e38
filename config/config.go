// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation tuning parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Spatial    SpatialConfig    `yaml:"spatial"`
	Population PopulationConfig `yaml:"population"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Energy     EnergyConfig     `yaml:"energy"`
	Feeding    FeedingConfig    `yaml:"feeding"`
	Hunting    HuntingConfig    `yaml:"hunting"`
	Courtship  CourtshipConfig  `yaml:"courtship"`
	Death      DeathConfig      `yaml:"death"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Food       FoodConfig       `yaml:"food"`
	Naming     NamingConfig     `yaml:"naming"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds tank dimensions and loop timing.
type WorldConfig struct {
	Width         int `yaml:"width"`           // Tank width in world units
	Height        int `yaml:"height"`          // Tank height in world units
	TickRate      int `yaml:"tick_rate"`       // Fixed simulation ticks per second
	DayTicks      int `yaml:"day_ticks"`       // Ticks per simulated day at normal time scale
	EventQueueCap int `yaml:"event_queue_cap"` // Birth/death events buffered per tick; overflow dropped
}

// SpatialConfig holds the neighbor grid parameters.
type SpatialConfig struct {
	CellSize float64 `yaml:"cell_size"` // Must cover the largest behavior radius
}

// PopulationConfig holds initial seeding and the reproduction ceiling.
type PopulationConfig struct {
	InitialPrey      int `yaml:"initial_prey"`
	InitialPredators int `yaml:"initial_predators"`
	SoftCap          int `yaml:"soft_cap"` // Courtship stops while live population >= this
}

// BehaviorConfig holds steering weights and ranges.
type BehaviorConfig struct {
	NeighborRadius   float64 `yaml:"neighbor_radius"`   // Flocking perception range
	SeparationRadius float64 `yaml:"separation_radius"` // Crowding distance
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	WanderWeight     float64 `yaml:"wander_weight"`
	WanderFreq       float64 `yaml:"wander_freq"` // Noise field frequency along the time axis
	BoundsMargin     float64 `yaml:"bounds_margin"`
	BoundsWeight     float64 `yaml:"bounds_weight"`
	ForceRatio       float64 `yaml:"force_ratio"`  // maxForce = base speed * this
	FlockStride      int     `yaml:"flock_stride"` // Full flock math every N ticks per agent
	FleeRange        float64 `yaml:"flee_range"`
	FleeBoost        float64 `yaml:"flee_boost"` // Speed ceiling multiplier while fleeing
}

// EnergyConfig holds the hunger economy.
type EnergyConfig struct {
	Start          float64 `yaml:"start"`            // Energy for seeded adults
	Max            float64 `yaml:"max"`              // Hard ceiling
	DecayRate      float64 `yaml:"decay_rate"`       // Drain per second for existing
	MoveCost       float64 `yaml:"move_cost"`        // Extra drain per unit of speed per second
	FeedGain       float64 `yaml:"feed_gain"`        // Energy per food pellet
	HuntGain       float64 `yaml:"hunt_gain"`        // Predator energy per kill
	CourtThreshold float64 `yaml:"court_threshold"`  // Minimum energy to court
	StarveSlow     float64 `yaml:"starve_slow"`      // Speed factor floor as energy approaches zero
}

// FeedingConfig holds pellet consumption parameters.
type FeedingConfig struct {
	SearchRadius     float64 `yaml:"search_radius"` // How far agents notice food
	Hunger           float64 `yaml:"hunger"`        // Agents seek food below this energy
	CooldownMin      float64 `yaml:"cooldown_min"`  // Re-sampled feed cooldown range, seconds
	CooldownMax      float64 `yaml:"cooldown_max"`
	DigestSlow       float64 `yaml:"digest_slow"`       // Speed factor right after a meal
	DigestRecovery   float64 `yaml:"digest_recovery"`   // Factor recovery per second back to 1.0
	SatedWindow      float64 `yaml:"sated_window"`      // Seconds after a meal during which prey ignore predators
	GrowthPerFeed    float64 `yaml:"growth_per_feed"`   // Body radius gained per meal
	SizeCapRatio     float64 `yaml:"size_cap_ratio"`    // Max radius = ratio * species base size
	SizeSpeedPenalty float64 `yaml:"size_speed_penalty"` // Speed lost at full growth
	ScorePerFeed     int     `yaml:"score_per_feed"`
}

// HuntingConfig holds predator pursuit parameters.
type HuntingConfig struct {
	Range         float64 `yaml:"range"`
	Boost         float64 `yaml:"boost"`          // Speed ceiling multiplier while pursuing
	Hunger        float64 `yaml:"hunger"`         // Predator hunts below this energy
	PreySizeRatio float64 `yaml:"prey_size_ratio"` // Prey must be smaller than ratio * hunter size
	RivalRadius   float64 `yaml:"rival_radius"`    // Same-species rival distance that triggers a tantrum
	CooldownMin   float64 `yaml:"cooldown_min"`    // Re-sampled inter-hunt interval, seconds
	CooldownMax   float64 `yaml:"cooldown_max"`
}

// CourtshipConfig holds pairing and reproduction parameters.
type CourtshipConfig struct {
	CheckInterval   float64 `yaml:"check_interval"` // Seconds between courtship rolls
	Chance          float64 `yaml:"chance"`
	PredatorChance  float64 `yaml:"predator_chance"`
	Radius          float64 `yaml:"radius"`
	ContactSlack    float64 `yaml:"contact_slack"` // Added to summed body radii for delivery range
	MatureAge       float64 `yaml:"mature_age"`    // Seconds before an agent may court
	CooldownMin     float64 `yaml:"cooldown_min"`  // Reproduction cooldown range, seconds
	CooldownMax     float64 `yaml:"cooldown_max"`
	OffspringMin    int     `yaml:"offspring_min"`
	OffspringMax    int     `yaml:"offspring_max"`
	SpawnJitter     float64 `yaml:"spawn_jitter"`      // Offspring scatter around the midpoint
	NewbornSizeFrac float64 `yaml:"newborn_size_frac"` // Newborn radius as fraction of species base size
	NewbornEnergy   float64 `yaml:"newborn_energy"`
}

// DeathConfig holds mortality and corpse parameters.
type DeathConfig struct {
	IllnessChance float64 `yaml:"illness_chance"` // Sudden illness probability per second
	DriftSpeed    float64 `yaml:"drift_speed"`    // Upward corpse drift, units per second
	DriftEase     float64 `yaml:"drift_ease"`     // Velocity easing rate toward the drift
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	TurnRate      float64 `yaml:"turn_rate"`      // Heading easing rate toward velocity, per second
	TailRate      float64 `yaml:"tail_rate"`      // Tail phase advance per unit of speed
	BounceDamping float64 `yaml:"bounce_damping"` // Velocity kept after a wall hit
	BounceCost    float64 `yaml:"bounce_cost"`    // Energy lost per wall hit
}

// FoodConfig holds pellet physics and limits.
type FoodConfig struct {
	SinkSpeed        float64 `yaml:"sink_speed"` // Terminal sink velocity
	SinkEase         float64 `yaml:"sink_ease"`  // Velocity easing rate toward the terminal sink
	DropSpeed        float64 `yaml:"drop_speed"` // Initial downward speed when dropped
	MaxActive        int     `yaml:"max_active"` // Pellet cap; extra drops ignored
	AutofeedInterval float64 `yaml:"autofeed_interval"` // Seconds between drops while autofeed is on
}

// NamingConfig holds name generation parameters.
type NamingConfig struct {
	TimeoutMS int `yaml:"timeout_ms"` // Per-attempt deadline for the external source
	QueueCap  int `yaml:"queue_cap"`  // In-flight plus pending results; overflow dropped
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	WindowTicks int `yaml:"window_ticks"` // Ticks per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32 // Tick duration in seconds as float32
	WorldW32       float32 // World.Width as float32
	WorldH32       float32 // World.Height as float32
	IllnessPerTick float32 // Death.IllnessChance scaled to one tick
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
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
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

	// Compute derived values
	cfg.ComputeDerived()

	return cfg, nil
}

// ComputeDerived calculates values derived from loaded config. Load
// calls it automatically; callers that mutate tuning fields afterwards
// must call it again themselves.
func (c *Config) ComputeDerived() {
	if c.World.TickRate <= 0 {
		c.World.TickRate = 60
	}
	c.Derived.DT32 = float32(1.0 / float64(c.World.TickRate))
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.IllnessPerTick = float32(c.Death.IllnessChance / float64(c.World.TickRate))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
