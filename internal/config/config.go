// Package config loads and saves the YAML configuration of graphene-metrics.
// It handles defaults, validation and conversion into the parameters of the
// analysis stages.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/graphene-metrics/internal/detection"
	"github.com/ironsheep/graphene-metrics/internal/imaging"
	"github.com/ironsheep/graphene-metrics/internal/scale"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the analysis configuration loaded from YAML
type Config struct {
	// ProgramVersion is the version of the program that wrote the file.
	ProgramVersion string `yaml:"programVersion"`

	PreProcessing     PreProcessing     `yaml:"preProcessing"`
	TextRecognition   TextRecognition   `yaml:"textRecognition"`
	BacteriaExclusion BacteriaExclusion `yaml:"bacteriaExclusion"`
	GrapheneAngles    GrapheneAngles    `yaml:"grapheneAngles"`
	Output            Output            `yaml:"output"`
}

// PreProcessing parameters
type PreProcessing struct {
	// EqualizeHistogram stretches the intensities before analysis
	EqualizeHistogram bool `yaml:"equalizeHistogram"`
}

// TextRecognition parameters
type TextRecognition struct {
	// OverrideScale skips footer recognition and uses the values below
	OverrideScale bool `yaml:"overrideScale"`

	// ScaleBarHeight is the footer height in pixels cut off in override mode
	ScaleBarHeight int `yaml:"scaleBarHeight"`

	// OverrideScaleMicrometers over OverrideScalePixels gives the scale
	OverrideScaleMicrometers float64 `yaml:"overrideScaleMicrometers"`
	OverrideScalePixels      int     `yaml:"overrideScalePixels"`

	// TessdataPrefix is the Tesseract language data directory, empty for the
	// system default
	TessdataPrefix string `yaml:"tessdataPrefix,omitempty"`
}

// BacteriaExclusion parameters
type BacteriaExclusion struct {
	Enabled bool `yaml:"enabled"`

	// ContrastThreshold is the minimum directional contrast of an edge pixel
	ContrastThreshold float64 `yaml:"contrastThreshold"`

	// MinimumEdgeArea is the area in pixels an edge region must exceed
	MinimumEdgeArea int `yaml:"minimumEdgeArea"`

	// ExclusionRadius is the distance from an edge in micrometers
	ExclusionRadius float64 `yaml:"exclusionRadius"`

	// RadiusAdjusted corrects the ratio for the radial field of view
	RadiusAdjusted bool `yaml:"radiusAdjusted"`
}

// GrapheneAngles parameters
type GrapheneAngles struct {
	Enabled bool `yaml:"enabled"`

	// Blur is the Gaussian sigma applied before thresholding
	Blur float64 `yaml:"blur"`

	// Threshold separates flakes from the background
	Threshold uint8 `yaml:"threshold"`

	// MinGrapheneSize is the minimum flake length in micrometers
	MinGrapheneSize float64 `yaml:"minGrapheneSize"`

	// MinGrapheneRatio is the minimum length to width ratio of a flake
	MinGrapheneRatio float64 `yaml:"minGrapheneRatio"`
}

// Output parameters
type Output struct {
	// Directory receives the per-image artifacts, nothing is written when empty
	Directory string `yaml:"directory"`

	// Debug adds diagnostic images to the artifacts
	Debug bool `yaml:"debug"`

	// Workers bounds the batch parallelism, 0 uses every CPU
	Workers int `yaml:"workers"`

	// EdgeColor and HullColor are the "#RRGGBB" overlay colours
	EdgeColor string `yaml:"edgeColor"`
	HullColor string `yaml:"hullColor"`
}

// Default returns a configuration with default values, stamped with version.
func Default(version string) *Config {
	return &Config{
		ProgramVersion: version,
		BacteriaExclusion: BacteriaExclusion{
			Enabled:           true,
			ContrastThreshold: 45,
			MinimumEdgeArea:   5,
			ExclusionRadius:   0.9,
		},
		GrapheneAngles: GrapheneAngles{
			Blur:             1.0,
			Threshold:        150,
			MinGrapheneSize:  0.5,
			MinGrapheneRatio: 3.0,
		},
		Output: Output{
			Directory: "output",
			EdgeColor: "#00ffff",
			HullColor: "#ff0000",
		},
	}
}

// Load loads the configuration at path on top of the defaults. If the file
// doesn't exist, the defaults are returned. Unknown keys are rejected so a
// misspelled parameter does not silently fall back to its default.
func Load(path, version string) (*Config, error) {
	cfg := Default(version)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save saves the configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// WriteDefault creates a default configuration file at path.
func WriteDefault(path, version string) error {
	return Default(version).Save(path)
}

// VersionMismatch reports whether the configuration was written by another
// version of the program, which may not reproduce the same results.
func (c *Config) VersionMismatch(version string) bool {
	return c.ProgramVersion != version
}

// Validate checks every parameter and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	tr := c.TextRecognition
	if tr.OverrideScale {
		check(tr.ScaleBarHeight >= 0, "textRecognition.scaleBarHeight must not be negative")
		check(tr.OverrideScaleMicrometers > 0, "textRecognition.overrideScaleMicrometers must be positive")
		check(tr.OverrideScalePixels > 0, "textRecognition.overrideScalePixels must be positive")
	}

	be := c.BacteriaExclusion
	check(be.ContrastThreshold >= 0, "bacteriaExclusion.contrastThreshold must not be negative")
	check(be.MinimumEdgeArea >= 0, "bacteriaExclusion.minimumEdgeArea must not be negative")
	check(be.ExclusionRadius > 0, "bacteriaExclusion.exclusionRadius must be positive")

	ga := c.GrapheneAngles
	check(ga.Blur >= 0, "grapheneAngles.blur must not be negative")
	check(ga.MinGrapheneSize >= 0, "grapheneAngles.minGrapheneSize must not be negative")
	check(ga.MinGrapheneRatio >= 0, "grapheneAngles.minGrapheneRatio must not be negative")

	out := c.Output
	check(out.Workers >= 0, "output.workers must not be negative")
	for _, colour := range []struct{ name, hex string }{
		{"edgeColor", out.EdgeColor},
		{"hullColor", out.HullColor},
	} {
		_, err := imaging.ParseColor(colour.hex)
		check(err == nil, "output.%s: %v", colour.name, err)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ExclusionConfig returns the parameters of the exclusion pipeline.
func (c *Config) ExclusionConfig() detection.ExclusionConfig {
	be := c.BacteriaExclusion
	return detection.ExclusionConfig{
		ContrastThreshold: be.ContrastThreshold,
		MinimumEdgeArea:   be.MinimumEdgeArea,
		ExclusionRadius:   be.ExclusionRadius,
		RadiusAdjusted:    be.RadiusAdjusted,
	}
}

// FlakeConfig returns the parameters of the flake pipeline.
func (c *Config) FlakeConfig() detection.FlakeConfig {
	ga := c.GrapheneAngles
	return detection.FlakeConfig{
		BlurSigma:         ga.Blur,
		Threshold:         ga.Threshold,
		MinimumSize:       ga.MinGrapheneSize,
		MinimumElongation: ga.MinGrapheneRatio,
	}
}

// ScaleOptions returns the options of the scale recognizer.
func (c *Config) ScaleOptions() scale.Options {
	tr := c.TextRecognition
	return scale.Options{
		Override:     tr.OverrideScale,
		FooterHeight: tr.ScaleBarHeight,
		Micrometers:  tr.OverrideScaleMicrometers,
		Pixels:       tr.OverrideScalePixels,
		Debug:        c.Output.Debug,
	}
}
