package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Sim      SimConfig      `toml:"sim"`
	Spatial  SpatialConfig  `toml:"spatial"`
	Resolver ResolverConfig `toml:"resolver"`
	Movement MovementConfig `toml:"movement"`
	Steering SteeringConfig `toml:"steering"`
	Logging  LoggingConfig  `toml:"logging"`
}

type SimConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
	Frames   int           `toml:"frames"`   // 0 = run until interrupted
	Headless bool          `toml:"headless"` // step as fast as possible instead of on a ticker
	Workers  int           `toml:"workers"`  // resolve stage parallelism, 1 = inline
	Scene    string        `toml:"scene"`
}

type SpatialConfig struct {
	Spacing float32 `toml:"spacing"`
}

type ResolverConfig struct {
	SkinWidth  float32 `toml:"skin_width"`
	MaxBounces int     `toml:"max_bounces"`
	Epsilon    float32 `toml:"epsilon"`
}

type MovementConfig struct {
	Acceleration float32    `toml:"acceleration"`
	MaxSpeed     float32    `toml:"max_speed"`
	Deceleration float32    `toml:"deceleration"`
	Gravity      [3]float32 `toml:"gravity"`
}

type SteeringConfig struct {
	SeekWeight       float32 `toml:"seek_weight"`
	SlowRadius       float32 `toml:"slow_radius"`
	SeparationRadius float32 `toml:"separation_radius"`
	SeparationWeight float32 `toml:"separation_weight"`
	ViewAngle        float32 `toml:"view_angle"` // separation half-angle in degrees, 180 = all round
	QueueWeight      float32 `toml:"queue_weight"`
	Lookahead        float32 `toml:"lookahead"`
	AvoidWeight      float32 `toml:"avoid_weight"`
	WanderWeight     float32 `toml:"wander_weight"`
	WanderRate       float32 `toml:"wander_rate"`
	ScriptsDir       string  `toml:"scripts_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return defaults()
}

// Validate rejects settings the simulation cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("%w: sim.tick_rate must be positive", ErrInvalid)
	case c.Sim.Frames < 0:
		return fmt.Errorf("%w: sim.frames must not be negative", ErrInvalid)
	case c.Sim.Workers < 1:
		return fmt.Errorf("%w: sim.workers must be at least 1", ErrInvalid)
	case !(c.Spatial.Spacing > 0):
		return fmt.Errorf("%w: spatial.spacing must be positive", ErrInvalid)
	case c.Resolver.MaxBounces < 1:
		return fmt.Errorf("%w: resolver.max_bounces must be at least 1", ErrInvalid)
	case c.Resolver.SkinWidth < 0:
		return fmt.Errorf("%w: resolver.skin_width must not be negative", ErrInvalid)
	case !(c.Resolver.Epsilon > 0):
		return fmt.Errorf("%w: resolver.epsilon must be positive", ErrInvalid)
	case c.Steering.ViewAngle < 0 || c.Steering.ViewAngle > 180:
		return fmt.Errorf("%w: steering.view_angle must be within [0, 180]", ErrInvalid)
	case c.Movement.MaxSpeed <= 0:
		return fmt.Errorf("%w: movement.max_speed must be positive", ErrInvalid)
	case c.Logging.Format != "json" && c.Logging.Format != "console":
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Sim: SimConfig{
			TickRate: 16 * time.Millisecond,
			Frames:   600,
			Headless: true,
			Workers:  1,
			Scene:    "data/yaml/scene.yaml",
		},
		Spatial: SpatialConfig{
			Spacing: 4,
		},
		Resolver: ResolverConfig{
			SkinWidth:  0.01,
			MaxBounces: 8,
			Epsilon:    0.001,
		},
		Movement: MovementConfig{
			Acceleration: 15,
			MaxSpeed:     10,
			Deceleration: 15,
			Gravity:      [3]float32{0, -9.81, 0},
		},
		Steering: SteeringConfig{
			SeekWeight:       1,
			SlowRadius:       2,
			SeparationRadius: 1.5,
			SeparationWeight: 1.5,
			ViewAngle:        135,
			QueueWeight:      1.2,
			Lookahead:        2,
			AvoidWeight:      2,
			WanderWeight:     0.3,
			WanderRate:       0.05,
			ScriptsDir:       "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
