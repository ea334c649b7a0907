// Package config loads syscover settings from .syscover/settings.yaml.
//
// The settings file names the tool's two inputs: the status spreadsheet
// and the directory of application reports. An absent file means the
// stock names, so a checkout that follows the conventional layout needs
// no configuration at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Stock input names, matching the analysis toolchain's conventions.
const (
	DefaultSheet   = "syscall-status.xlsx"
	DefaultReports = "to_aggregate"
	DefaultSuffix  = ".json"
)

// Settings locates the tool's inputs.
type Settings struct {
	// Sheet is the status spreadsheet path (.xlsx or .csv).
	Sheet string `yaml:"sheet"`
	// Reports is the directory holding per-application report files.
	Reports string `yaml:"reports"`
	// Suffix is the report filename suffix, matched case-sensitively.
	Suffix string `yaml:"suffix"`
}

// Default returns settings with the stock input names.
func Default() Settings {
	return Settings{
		Sheet:   DefaultSheet,
		Reports: DefaultReports,
		Suffix:  DefaultSuffix,
	}
}

// path returns the settings file location under dir.
func path(dir string) string {
	return filepath.Join(dir, ".syscover", "settings.yaml")
}

// Load reads .syscover/settings.yaml under dir. An absent file yields
// the defaults; fields the file omits fall back individually.
func Load(dir string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path(dir))
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("config: read %s: %w", path(dir), err)
	}
	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return s, fmt.Errorf("config: parse %s: %w", path(dir), err)
	}
	if file.Sheet != "" {
		s.Sheet = file.Sheet
	}
	if file.Reports != "" {
		s.Reports = file.Reports
	}
	if file.Suffix != "" {
		s.Suffix = file.Suffix
	}
	return s, nil
}

// Save writes the settings file under dir, creating .syscover/ as
// needed. Errors if the file already exists.
func Save(dir string, s Settings) error {
	p := path(dir)
	if _, err := os.Stat(p); err == nil {
		return fmt.Errorf("config: %s already exists", p)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(p), err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: marshal settings: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", p, err)
	}
	return nil
}
