package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Canvas   CanvasConfig   `yaml:"canvas"`
	Trace    TraceConfig    `yaml:"trace"`
	Classify ClassifyConfig `yaml:"classify"`
	Reveal   RevealConfig   `yaml:"reveal"`
	Visuals  VisualsConfig  `yaml:"visuals"`
	Paths    PathsConfig    `yaml:"paths"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type CanvasConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Background string  `yaml:"background"` // #rrggbb
	MaxUpscale float64 `yaml:"max_upscale"`
}

type TraceConfig struct {
	Threshold       Threshold     `yaml:"threshold"` // 0..255 | auto
	Invert          bool          `yaml:"invert"`
	Denoise         float64       `yaml:"denoise"` // gaussian sigma in pixels, 0 = off
	StretchContrast bool          `yaml:"stretch_contrast"`
	TurdSize        int           `yaml:"turd_size"`
	AlphaMax        float64       `yaml:"alpha_max"`
	OptiCurve       bool          `yaml:"opti_curve"`
	OptTolerance    float64       `yaml:"opt_tolerance"`
	TurnPolicy      string        `yaml:"turn_policy"`
	Timeout         time.Duration `yaml:"timeout"`
	Workers         int           `yaml:"workers"`
}

// Threshold is a luma cut-off in 0..255, or AutoThreshold.
type Threshold int

// AutoThreshold is written as "auto" and picks the cut-off per image.
const AutoThreshold Threshold = -1

func (t *Threshold) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && strings.EqualFold(n.Value, "auto") {
		*t = AutoThreshold
		return nil
	}
	var v int
	if err := n.Decode(&v); err != nil {
		return fmt.Errorf("threshold must be 0..255 or auto: %w", err)
	}
	*t = Threshold(v)
	return nil
}

func (t Threshold) MarshalYAML() (any, error) {
	if t == AutoThreshold {
		return "auto", nil
	}
	return int(t), nil
}

type ClassifyConfig struct {
	CloseTolerance     float64 `yaml:"close_tolerance"`
	BackgroundCoverage float64 `yaml:"background_coverage"`
	BackgroundOrigin   float64 `yaml:"background_origin"`
	GlyphMaxArea       float64 `yaml:"glyph_max_area"`
	GlyphMaxWidth      float64 `yaml:"glyph_max_width"`
	GlyphMaxHeight     float64 `yaml:"glyph_max_height"`
	Order              string  `yaml:"order"` // none | spatial | area
	OrderTolerance     float64 `yaml:"order_tolerance"`
}

type RevealConfig struct {
	Strategy        string     `yaml:"strategy"`   // sequential | parallel | balanced
	Allocation      string     `yaml:"allocation"` // length | equal
	PauseFraction   float64    `yaml:"pause_fraction"`
	MaxPauseTotal   float64    `yaml:"max_pause_total"`
	Stagger         float64    `yaml:"stagger"`
	Easing          string     `yaml:"easing"` // linear | smoothstep | cubic | bezier
	EasePasses      int        `yaml:"ease_passes"`
	Bezier          [4]float64 `yaml:"bezier"`
	DrawFraction    float64    `yaml:"draw_fraction"`
	DelaySeconds    float64    `yaml:"delay_seconds"`
	DelayOfDraw     float64    `yaml:"delay_of_draw"`
	ZoomFrom        float64    `yaml:"zoom_from"`
	ZoomTo          float64    `yaml:"zoom_to"`
	FillStart       float64    `yaml:"fill_start"`
	DefaultSceneSec float64    `yaml:"default_scene_sec"`
}

type VisualsConfig struct {
	FPS int `yaml:"fps"`
}

type PathsConfig struct {
	Output     string `yaml:"output"`
	Cache      string `yaml:"cache"`
	CacheIndex string `yaml:"cache_index"`
}

type LoggingConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
}

// Default returns the settings the heuristics were tuned against (1920x1080)
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{
			Width:      1920,
			Height:     1080,
			Background: "#ffffff",
			MaxUpscale: 2.0,
		},
		Trace: TraceConfig{
			Threshold:       127,
			StretchContrast: true,
			TurdSize:        2,
			AlphaMax:        1.0,
			OptiCurve:       true,
			OptTolerance:    0.2,
			TurnPolicy:      "minority",
			Timeout:         20 * time.Second,
			Workers:         4,
		},
		Classify: ClassifyConfig{
			CloseTolerance:     5,
			BackgroundCoverage: 0.95,
			BackgroundOrigin:   0.05,
			GlyphMaxArea:       0.02,
			GlyphMaxWidth:      0.06,
			GlyphMaxHeight:     0.06,
			Order:              "spatial",
			OrderTolerance:     10,
		},
		Reveal: RevealConfig{
			Strategy:        "balanced",
			Allocation:      "length",
			PauseFraction:   0.02,
			MaxPauseTotal:   0.2,
			Stagger:         0.15,
			Easing:          "bezier",
			EasePasses:      1,
			Bezier:          [4]float64{0.42, 0, 0.58, 1},
			DrawFraction:    0.75,
			DelaySeconds:    0.3,
			DelayOfDraw:     0.1,
			ZoomFrom:        1.0,
			ZoomTo:          1.05,
			FillStart:       0.5,
			DefaultSceneSec: 6,
		},
		Visuals: VisualsConfig{FPS: 30},
		Paths: PathsConfig{
			Output:     "output",
			Cache:      "cache/traces",
			CacheIndex: "cache/traces/index.json",
		},
		Logging: LoggingConfig{Development: true, Level: "info"},
	}
}

// Load reads config.yaml on top of Default and returns a Config struct
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment (.env in local dev)
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("SKETCH_OUTPUT_DIR"); v != "" {
		c.Paths.Output = v
	}
	if v := os.Getenv("SKETCH_CACHE_DIR"); v != "" {
		c.Paths.Cache = v
		c.Paths.CacheIndex = v + "/index.json"
	}
	if v := os.Getenv("SKETCH_STRATEGY"); v != "" {
		c.Reveal.Strategy = v
	}
	if v := os.Getenv("SKETCH_TRACE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SKETCH_TRACE_TIMEOUT: %w", err)
		}
		c.Trace.Timeout = d
	}
	if v := os.Getenv("SKETCH_THRESHOLD"); v != "" {
		if strings.EqualFold(v, "auto") {
			c.Trace.Threshold = AutoThreshold
		} else {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("SKETCH_THRESHOLD: %w", err)
			}
			c.Trace.Threshold = Threshold(n)
		}
	}
	if v := os.Getenv("SKETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKETCH_WORKERS: %w", err)
		}
		c.Trace.Workers = n
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	case c.Canvas.MaxUpscale <= 0:
		return fmt.Errorf("canvas.max_upscale must be positive")
	case c.Trace.Threshold != AutoThreshold && (c.Trace.Threshold < 0 || c.Trace.Threshold > 255):
		return fmt.Errorf("trace.threshold must be within 0..255 or auto, got %d", c.Trace.Threshold)
	case c.Trace.Denoise < 0:
		return fmt.Errorf("trace.denoise must not be negative")
	case c.Trace.Timeout <= 0:
		return fmt.Errorf("trace.timeout must be positive, got %v", c.Trace.Timeout)
	case c.Trace.Workers <= 0:
		return fmt.Errorf("trace.workers must be positive")
	case c.Visuals.FPS <= 0:
		return fmt.Errorf("visuals.fps must be positive")
	case c.Reveal.DrawFraction <= 0 || c.Reveal.DrawFraction > 1:
		return fmt.Errorf("reveal.draw_fraction must be within (0, 1]")
	case c.Reveal.PauseFraction < 0 || c.Reveal.Stagger < 0 || c.Reveal.Stagger >= 1:
		return fmt.Errorf("reveal.pause_fraction and reveal.stagger must be within [0, 1)")
	case c.Reveal.EasePasses < 0:
		return fmt.Errorf("reveal.ease_passes must not be negative")
	case c.Reveal.DefaultSceneSec <= 0:
		return fmt.Errorf("reveal.default_scene_sec must be positive")
	}
	return nil
}
