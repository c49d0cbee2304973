package profile

import (
	"fmt"
	"os"
	"time"

	"github.com/ethanbaker/controlfill/internal/completion"
	"github.com/ethanbaker/controlfill/internal/controls"
	"github.com/ethanbaker/controlfill/pkg/utils"
	"gopkg.in/yaml.v3"
)

/* ---- DEFAULTS ---- */

const (
	DefaultModel       = "gpt4"
	DefaultTemperature = 0.0
	DefaultDataset     = "all"
	DefaultPacing      = 30 * time.Second
)

// Profile holds the generation parameters and timing for a run
type Profile struct {
	Model       string           `yaml:"model"`
	Temperature float64          `yaml:"temperature"`
	Dataset     string           `yaml:"dataset"`
	Columns     controls.Columns `yaml:"columns"`
	Pacing      time.Duration    `yaml:"pacing"`
	Backoff     time.Duration    `yaml:"backoff"`
	MaxRetries  int              `yaml:"max_retries"`
}

// fileProfile mirrors Profile with optional fields so unset keys keep defaults
type fileProfile struct {
	Model       *string          `yaml:"model"`
	Temperature *float64         `yaml:"temperature"`
	Dataset     *string          `yaml:"dataset"`
	Columns     controls.Columns `yaml:"columns"`
	Pacing      *time.Duration   `yaml:"pacing"`
	Backoff     *time.Duration   `yaml:"backoff"`
	MaxRetries  *int             `yaml:"max_retries"`
}

// Default returns the built-in profile
func Default() Profile {
	return Profile{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		Dataset:     DefaultDataset,
		Columns:     controls.DefaultColumns(),
		Pacing:      DefaultPacing,
		Backoff:     completion.DefaultBackoff,
		MaxRetries:  completion.DefaultMaxRetries,
	}
}

// Parse overlays YAML profile data on the defaults
func Parse(data []byte) (Profile, error) {
	p := Default()

	var f fileProfile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Profile{}, fmt.Errorf("invalid profile: %w", err)
	}

	if f.Model != nil {
		p.Model = *f.Model
	}
	if f.Temperature != nil {
		p.Temperature = *f.Temperature
	}
	if f.Dataset != nil {
		p.Dataset = *f.Dataset
	}
	if f.Columns.ID != "" {
		p.Columns.ID = f.Columns.ID
	}
	if f.Columns.Description != "" {
		p.Columns.Description = f.Columns.Description
	}
	if f.Columns.Result != "" {
		p.Columns.Result = f.Columns.Result
	}
	if f.Pacing != nil {
		p.Pacing = *f.Pacing
	}
	if f.Backoff != nil {
		p.Backoff = *f.Backoff
	}
	if f.MaxRetries != nil {
		p.MaxRetries = *f.MaxRetries
	}

	return p, p.Validate()
}

// Load reads a YAML profile from disk
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return Parse(data)
}

// FromConfig resolves the profile for a run: defaults, then PROFILE_FILE,
// then individual environment overrides
func FromConfig(cfg *utils.Config) (Profile, error) {
	p := Default()

	if path := cfg.Get("PROFILE_FILE"); path != "" {
		var err error
		if p, err = Load(path); err != nil {
			return Profile{}, err
		}
	}

	p.Model = cfg.GetWithDefault("COMPLETION_MODEL", p.Model)
	p.Dataset = cfg.GetWithDefault("COMPLETION_DATASET", p.Dataset)
	p.Columns.ID = cfg.GetWithDefault("COLUMN_ID", p.Columns.ID)
	p.Columns.Description = cfg.GetWithDefault("COLUMN_DESCRIPTION", p.Columns.Description)
	p.Columns.Result = cfg.GetWithDefault("COLUMN_RESULT", p.Columns.Result)

	// Numeric keys that are set but malformed are errors
	if v, ok, err := cfg.LookupFloat("COMPLETION_TEMPERATURE"); err != nil {
		return Profile{}, err
	} else if ok {
		p.Temperature = v
	}
	if v, ok, err := cfg.LookupInt("MAX_RETRIES"); err != nil {
		return Profile{}, err
	} else if ok {
		p.MaxRetries = v
	}
	for key, field := range map[string]*time.Duration{
		"PACING_INTERVAL": &p.Pacing,
		"RETRY_BACKOFF":   &p.Backoff,
	} {
		v, ok, err := cfg.LookupDuration(key)
		if err != nil {
			return Profile{}, err
		}
		if ok {
			*field = v
		}
	}

	return p, p.Validate()
}

// Validate rejects profiles the run cannot use
func (p Profile) Validate() error {
	switch {
	case p.Model == "":
		return fmt.Errorf("profile: model is required")
	case p.Temperature < 0 || p.Temperature > 2:
		return fmt.Errorf("profile: temperature %v out of range [0, 2]", p.Temperature)
	case p.Columns.Description == "" || p.Columns.Result == "":
		return fmt.Errorf("profile: description and result columns are required")
	case p.Pacing < 0 || p.Backoff < 0:
		return fmt.Errorf("profile: pacing and backoff must not be negative")
	case p.MaxRetries < 0:
		return fmt.Errorf("profile: max_retries must not be negative")
	}
	return nil
}
