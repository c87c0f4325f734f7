package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"whiteboard-pipeline/config"
	"whiteboard-pipeline/render"
	"whiteboard-pipeline/types"
	"whiteboard-pipeline/visuals"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config config.yaml] diagram.png[:seconds] ...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load .env (local dev only)
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()
	log := logger.Sugar()

	diagrams, err := parseDiagrams(flag.Args())
	if err != nil {
		log.Errorf("Bad arguments: %v", err)
		flag.Usage()
		os.Exit(2)
	}

	for _, dir := range []string{cfg.Paths.Output, cfg.Paths.Cache} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	// Create run ID and output dir for this run
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		log.Fatalf("Failed to create run dir: %v", err)
	}

	log.Infof("Whiteboard pipeline starting, run ID: %s", runID)
	log.Infof("Output dir: %s", runDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	state := &types.PipelineState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Diagrams:  diagrams,
	}

	// Save state on exit
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		saveState(log, state, runDir)
		if state.Error != "" {
			log.Errorf("Pipeline failed: %s", state.Error)
			logger.Sync()
			os.Exit(1)
		}
		sketched := 0
		for _, d := range state.Diagrams {
			if d.Presentation == types.PresentSketch {
				sketched++
			}
		}
		log.Infof("Pipeline complete: %d/%d diagram(s) sketched", sketched, len(state.Diagrams))
	}()

	// ─────────────────────────────────────────────
	// STAGE 1: Vectorize
	// ─────────────────────────────────────────────
	log.Info("━━━ STAGE 1: Vectorize ━━━")
	assembler, err := visuals.NewAssembler(cfg, runID, log.Named("visuals"))
	if err != nil {
		state.Error = fmt.Sprintf("Stage 1 Vectorize init: %v", err)
		return
	}
	if err := assembler.Run(ctx, diagrams, runDir); err != nil {
		state.Error = fmt.Sprintf("Stage 1 Vectorize: %v", err)
		return
	}

	// ─────────────────────────────────────────────
	// STAGE 2: Reveal timelines
	// ─────────────────────────────────────────────
	log.Info("━━━ STAGE 2: Reveal Timelines ━━━")
	renderer, err := render.New(cfg, log.Named("render"))
	if err != nil {
		state.Error = fmt.Sprintf("Stage 2 Render init: %v", err)
		return
	}
	if err := renderer.Run(diagrams, runDir); err != nil {
		state.Error = fmt.Sprintf("Stage 2 Render: %v", err)
		return
	}
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// loadConfig reads path when it exists, falling back to the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(c config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("logging.level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

// parseDiagrams turns "file[:seconds]" arguments into diagrams. A missing
// duration leaves the scene length to reveal.default_scene_sec.
func parseDiagrams(args []string) ([]*types.Diagram, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no diagrams given")
	}
	diagrams := make([]*types.Diagram, 0, len(args))
	for i, arg := range args {
		file, seconds := arg, 0.0
		if at := strings.LastIndexByte(arg, ':'); at > 0 {
			if v, err := strconv.ParseFloat(arg[at+1:], 64); err == nil {
				if !(v > 0) || math.IsInf(v, 1) {
					return nil, fmt.Errorf("%s: scene duration must be positive", arg)
				}
				file, seconds = arg[:at], v
			}
		}
		diagrams = append(diagrams, &types.Diagram{
			ID:               uuid.NewString(),
			Index:            i,
			SourceFile:       file,
			SceneDurationSec: seconds,
		})
	}
	return diagrams, nil
}

func saveState(log *zap.SugaredLogger, state *types.PipelineState, dir string) {
	saveJSON(log, filepath.Join(dir, "pipeline_state.json"), state)
}

func saveJSON(log *zap.SugaredLogger, path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warnf("could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warnf("could not save %s: %v", path, err)
	}
}
