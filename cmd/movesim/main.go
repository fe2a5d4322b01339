package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dudliq/locomotion/internal/config"
	"github.com/dudliq/locomotion/internal/core/event"
	coresys "github.com/dudliq/locomotion/internal/core/system"
	"github.com/dudliq/locomotion/internal/data"
	"github.com/dudliq/locomotion/internal/env"
	"github.com/dudliq/locomotion/internal/movement"
	"github.com/dudliq/locomotion/internal/scripting"
	"github.com/dudliq/locomotion/internal/spatial"
	"github.com/dudliq/locomotion/internal/system"
	"github.com/dudliq/locomotion/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Simulation ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/movesim.toml"
	if p := os.Getenv("LOCOMOTION_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load scene and build the static environment
	printSection("scene")
	scene, err := data.LoadScene(cfg.Sim.Scene)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	static := env.NewStatic()
	if err := scene.Build(static); err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	printStat("obstacles", static.Len())
	printStat("agents", scene.AgentCount())

	// 4. Core state
	index, err := spatial.New(cfg.Spatial.Spacing)
	if err != nil {
		return fmt.Errorf("spatial index: %w", err)
	}
	resolver, err := movement.NewResolver(movement.ResolverConfig{
		SkinWidth:  cfg.Resolver.SkinWidth,
		MaxBounces: cfg.Resolver.MaxBounces,
		Epsilon:    cfg.Resolver.Epsilon,
	})
	if err != nil {
		return fmt.Errorf("resolver: %w", err)
	}

	// 5. Lua behaviours
	lua, err := scripting.NewEngine(cfg.Steering.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()
	lua.SetIndex(index)
	printOK("lua behaviours loaded")

	deps := &system.Deps{
		Config:    cfg,
		Log:       log,
		World:     world.NewState(index),
		Bus:       event.NewBus(),
		Scripting: lua,
		Oracle:    static,
		Resolver:  resolver,
	}
	if err := system.Populate(deps, scene, static); err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	printStat("entities", deps.World.Count())
	fmt.Println()

	// 6. Create systems and register with runner
	runner := coresys.NewRunner()
	diag := system.RegisterAll(runner, deps)
	system.Settle(runner)

	// 7. Frame loop
	start := time.Now()
	if cfg.Sim.Headless {
		frames := cfg.Sim.Frames
		if frames == 0 {
			return fmt.Errorf("headless run needs sim.frames > 0")
		}
		for i := 0; i < frames; i++ {
			runner.Tick(cfg.Sim.TickRate)
		}
	} else {
		runTicker(runner, cfg, log)
	}

	stats := diag.Stats()
	log.Info("simulation finished",
		zap.Uint64("frames", runner.Frame()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("contacts", stats.Contacts),
		zap.Int("pushes", stats.Pushes),
		zap.Int("faults", stats.Faults),
		zap.Int("cells", stats.Cells),
	)
	for id, tr := range deps.World.Transforms.All() {
		log.Debug("final position",
			zap.Uint64("entity", uint64(id)),
			zap.Float32("x", tr.Position[0]),
			zap.Float32("y", tr.Position[1]),
			zap.Float32("z", tr.Position[2]),
		)
	}
	return nil
}

// runTicker steps the runner in real time until the frame budget is spent
// or the process is signalled.
func runTicker(runner *coresys.Runner, cfg *config.Config, log *zap.Logger) {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	log.Info("frame loop started", zap.Duration("tick", cfg.Sim.TickRate), zap.Int("workers", cfg.Sim.Workers))
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Sim.TickRate)
			if cfg.Sim.Frames > 0 && runner.Frame() >= uint64(cfg.Sim.Frames) {
				return
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
