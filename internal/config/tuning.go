package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/railwear/internal/profile"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/railwear.defaults.json"

// RailConfig holds the generation and scoring knobs. Every field is optional;
// the Get* methods fall back to built-in defaults for unset fields, so a
// partial file only overrides what it names.
type RailConfig struct {
	// Generation limits
	MaxLength    *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	MaxAmplitude *float64 `json:"max_amplitude,omitempty" yaml:"max_amplitude,omitempty"`

	// Rail geometry (mm)
	RailHeight  *float64 `json:"rail_height,omitempty" yaml:"rail_height,omitempty"`
	RailSpacing *float64 `json:"rail_spacing,omitempty" yaml:"rail_spacing,omitempty"`

	// Top surface noise. PrimaryBand names the band whose amplitude and
	// frequency are taken from the request.
	Bands        []profile.NoiseBand `json:"bands,omitempty" yaml:"bands,omitempty"`
	PrimaryBand  *string             `json:"primary_band,omitempty" yaml:"primary_band,omitempty"`
	Depressions  *int                `json:"depressions,omitempty" yaml:"depressions,omitempty"`
	ClampOverlap *bool               `json:"clamp_overlap,omitempty" yaml:"clamp_overlap,omitempty"`

	// Bottom surface wear added on top of the shifted top profile
	BottomAmplitude *float64 `json:"bottom_amplitude,omitempty" yaml:"bottom_amplitude,omitempty"`
	BottomFrequency *float64 `json:"bottom_frequency,omitempty" yaml:"bottom_frequency,omitempty"`

	// Condition thresholds
	Condition *profile.ConditionScale `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Server
	MaxSessions *int    `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
	ChartTheme  *string `json:"chart_theme,omitempty" yaml:"chart_theme,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyRailConfig returns a RailConfig with every field unset.
func EmptyRailConfig() *RailConfig {
	return &RailConfig{}
}

// DefaultRailConfig returns a RailConfig with every field populated from
// the built-in defaults.
func DefaultRailConfig() *RailConfig {
	scale := profile.DefaultScale()
	return &RailConfig{
		MaxLength:       ptrInt(100000),
		MaxAmplitude:    ptrFloat64(1000),
		RailHeight:      ptrFloat64(3),
		RailSpacing:     ptrFloat64(10),
		Bands:           profile.RealisticVariant().Bands,
		PrimaryBand:     ptrString(profile.BandShort),
		Depressions:     ptrInt(profile.DefaultDepressionCount),
		ClampOverlap:    ptrBool(false),
		BottomAmplitude: ptrFloat64(0.05),
		BottomFrequency: ptrFloat64(0.02),
		Condition:       &scale,
		MaxSessions:     ptrInt(32),
		ChartTheme:      ptrString("white"),
	}
}

// LoadRailConfig loads a RailConfig from a .json, .yaml or .yml file.
// The file must be under 1MB. Fields omitted from the file keep their
// defaults through the Get* methods.
func LoadRailConfig(path string) (*RailConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRailConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *RailConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRailConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the set fields are usable.
func (c *RailConfig) Validate() error {
	if c.MaxLength != nil && *c.MaxLength <= profile.MinLength {
		return fmt.Errorf("max_length must be greater than %d, got %d", profile.MinLength, *c.MaxLength)
	}
	if c.MaxAmplitude != nil && (*c.MaxAmplitude <= 0 || !isFinite(*c.MaxAmplitude)) {
		return fmt.Errorf("max_amplitude must be finite and positive, got %v", *c.MaxAmplitude)
	}
	if c.RailHeight != nil && !isFinite(*c.RailHeight) {
		return fmt.Errorf("rail_height must be finite, got %v", *c.RailHeight)
	}
	if c.RailSpacing != nil && !isFinite(*c.RailSpacing) {
		return fmt.Errorf("rail_spacing must be finite, got %v", *c.RailSpacing)
	}
	for i, b := range c.Bands {
		if b.Amplitude < 0 || !isFinite(b.Amplitude) {
			return fmt.Errorf("bands[%d] (%s): amplitude must be finite and non-negative, got %v", i, b.Name, b.Amplitude)
		}
		if !isFinite(b.Frequency) {
			return fmt.Errorf("bands[%d] (%s): frequency must be finite, got %v", i, b.Name, b.Frequency)
		}
	}
	if c.PrimaryBand != nil && *c.PrimaryBand == "" {
		return fmt.Errorf("primary_band must not be empty")
	}
	if c.Depressions != nil && *c.Depressions < 0 {
		return fmt.Errorf("depressions must be non-negative, got %d", *c.Depressions)
	}
	if c.BottomAmplitude != nil && (*c.BottomAmplitude < 0 || !isFinite(*c.BottomAmplitude)) {
		return fmt.Errorf("bottom_amplitude must be finite and non-negative, got %v", *c.BottomAmplitude)
	}
	if c.BottomFrequency != nil && !isFinite(*c.BottomFrequency) {
		return fmt.Errorf("bottom_frequency must be finite, got %v", *c.BottomFrequency)
	}
	if c.Condition != nil {
		if err := c.Condition.Validate(); err != nil {
			return err
		}
	}
	if c.MaxSessions != nil && *c.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", *c.MaxSessions)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// GetMaxLength returns the max_length value or the default.
func (c *RailConfig) GetMaxLength() int {
	if c.MaxLength == nil {
		return 100000
	}
	return *c.MaxLength
}

// GetMaxAmplitude returns the max_amplitude value or the default.
func (c *RailConfig) GetMaxAmplitude() float64 {
	if c.MaxAmplitude == nil {
		return 1000
	}
	return *c.MaxAmplitude
}

// Limits returns the per-request generation bounds.
func (c *RailConfig) Limits() profile.Limits {
	return profile.Limits{MaxLength: c.GetMaxLength(), MaxAmplitude: c.GetMaxAmplitude()}
}

// GetRailHeight returns the rail_height value or the default.
func (c *RailConfig) GetRailHeight() float64 {
	if c.RailHeight == nil {
		return 3
	}
	return *c.RailHeight
}

// GetRailSpacing returns the rail_spacing value or the default.
func (c *RailConfig) GetRailSpacing() float64 {
	if c.RailSpacing == nil {
		return 10
	}
	return *c.RailSpacing
}

// GetPrimaryBand returns the primary_band value or the default.
func (c *RailConfig) GetPrimaryBand() string {
	if c.PrimaryBand == nil {
		return profile.BandShort
	}
	return *c.PrimaryBand
}

// GetDepressions returns the depressions value or the default.
func (c *RailConfig) GetDepressions() int {
	if c.Depressions == nil {
		return profile.DefaultDepressionCount
	}
	return *c.Depressions
}

// GetClampOverlap returns the clamp_overlap value or the default.
func (c *RailConfig) GetClampOverlap() bool {
	if c.ClampOverlap == nil {
		return false
	}
	return *c.ClampOverlap
}

// GetBottomAmplitude returns the bottom_amplitude value or the default.
func (c *RailConfig) GetBottomAmplitude() float64 {
	if c.BottomAmplitude == nil {
		return 0.05
	}
	return *c.BottomAmplitude
}

// GetBottomFrequency returns the bottom_frequency value or the default.
func (c *RailConfig) GetBottomFrequency() float64 {
	if c.BottomFrequency == nil {
		return 0.02
	}
	return *c.BottomFrequency
}

// GetCondition returns the condition scale or the default five-band table.
func (c *RailConfig) GetCondition() profile.ConditionScale {
	if c.Condition == nil {
		return profile.DefaultScale()
	}
	return *c.Condition
}

// GetMaxSessions returns the max_sessions value or the default.
func (c *RailConfig) GetMaxSessions() int {
	if c.MaxSessions == nil {
		return 32
	}
	return *c.MaxSessions
}

// GetChartTheme returns the chart_theme value or the default.
func (c *RailConfig) GetChartTheme() string {
	if c.ChartTheme == nil || *c.ChartTheme == "" {
		return "white"
	}
	return *c.ChartTheme
}

// TopVariant assembles the top surface variant for a request, overriding
// the primary band with the requested amplitude and frequency.
func (c *RailConfig) TopVariant(amplitude, frequency float64) profile.Variant {
	v := profile.RealisticVariant()
	if c.Bands != nil {
		v.Bands = append([]profile.NoiseBand(nil), c.Bands...)
	}
	v.Depressions = c.GetDepressions()
	v.ClampOverlap = c.GetClampOverlap()
	return v.WithBand(c.GetPrimaryBand(), amplitude, frequency)
}
