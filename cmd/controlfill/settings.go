package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethanbaker/controlfill/internal/controls"
	"github.com/ethanbaker/controlfill/internal/profile"
	"github.com/ethanbaker/controlfill/pkg/utils"
)

/* ---- DEFAULTS ---- */

const (
	defaultCSVPath             = "data/sp800-53r5-controls.csv"
	defaultIntroductionContext = "data/introduction_context.txt"
	defaultSecurityContext     = "data/security_context.txt"
	defaultAction              = "data/action.txt"
	outputPrefix               = "updated_"
)

// settings is everything a run needs that comes from files and the environment
type settings struct {
	cfg        *utils.Config
	csvPath    string
	outputPath string
	profile    profile.Profile
	template   controls.PromptTemplate
}

// loadSettings resolves configuration with flags taking precedence over
// environment keys, which take precedence over defaults
func loadSettings(opts *options) (*settings, error) {
	cfg, err := utils.NewConfigFromEnv(opts.envFile)
	if err != nil {
		return nil, err
	}

	s := &settings{cfg: cfg}

	s.csvPath = firstNonEmpty(opts.csvPath, cfg.GetWithDefault("CSV_PATH", defaultCSVPath))
	s.outputPath = firstNonEmpty(opts.outputPath, cfg.Get("OUTPUT_PATH"), defaultOutputPath(s.csvPath))

	if s.profile, err = profile.FromConfig(cfg); err != nil {
		return nil, err
	}

	s.template, err = controls.LoadPromptTemplate(
		cfg.GetWithDefault("INTRODUCTION_CONTEXT_FILE", defaultIntroductionContext),
		cfg.GetWithDefault("SECURITY_CONTEXT_FILE", defaultSecurityContext),
		cfg.GetWithDefault("ACTION_FILE", defaultAction),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// loadDataset reads the checkpoint file when one exists and the input CSV
// otherwise
func (s *settings) loadDataset() (*controls.Dataset, string, error) {
	source, err := resolveSource(s.csvPath, s.outputPath)
	if err != nil {
		return nil, "", err
	}

	ds, err := controls.Load(source, s.profile.Columns)
	if err != nil {
		return nil, "", err
	}
	return ds, source, nil
}

// defaultOutputPath places updated_<name> next to the input file
func defaultOutputPath(csvPath string) string {
	return filepath.Join(filepath.Dir(csvPath), outputPrefix+filepath.Base(csvPath))
}

// resolveSource picks the file a run starts from
func resolveSource(csvPath, outputPath string) (string, error) {
	_, err := os.Stat(outputPath)
	switch {
	case err == nil:
		return outputPath, nil
	case errors.Is(err, fs.ErrNotExist):
		return csvPath, nil
	default:
		return "", fmt.Errorf("failed to check checkpoint %s: %w", outputPath, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
