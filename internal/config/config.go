package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"jobexec/custom_errors"
)

// Section names the executor recognizes. Anything else in the file is
// dropped so injected sections never reach a strategy.
const (
	SectionJobDB     = "jobdb"
	SectionCompute   = "compute"
	SectionTransport = "transportation"
)

var knownSections = []string{SectionJobDB, SectionCompute, SectionTransport}

// Config carries the flat string parameters of the recognized sections.
// Both getters are non-failing: a missing section is an empty map and a
// missing key is the caller's default.
type Config struct {
	sections map[string]map[string]string
}

func New(sections map[string]map[string]string) *Config {
	cfg := &Config{sections: make(map[string]map[string]string, len(knownSections))}
	for _, name := range knownSections {
		if params, ok := sections[name]; ok {
			copied := make(map[string]string, len(params))
			for k, v := range params {
				copied[k] = v
			}
			cfg.sections[name] = copied
		}
	}
	return cfg
}

// Load reads a configuration file, picking the format from the extension.
func Load(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(path)
	}
	return ReadINI(path)
}

func ReadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, custom_errors.Configurationf("read %s: %v", path, err)
	}
	sections := make(map[string]map[string]string)
	for _, name := range knownSections {
		sec, err := file.GetSection(name)
		if err != nil {
			continue
		}
		sections[name] = sec.KeysHash()
	}
	return New(sections), nil
}

func ReadJSON(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, custom_errors.Configurationf("read %s: %v", path, err)
	}
	var parsed map[string]map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, custom_errors.Configurationf("parse %s: %v", path, err)
	}
	sections := make(map[string]map[string]string, len(parsed))
	for name, params := range parsed {
		flat := make(map[string]string, len(params))
		for k, v := range params {
			flat[k] = fmt.Sprint(v)
		}
		sections[name] = flat
	}
	return New(sections), nil
}

// Section returns a copy of the named section, empty if absent.
func (c *Config) Section(name string) map[string]string {
	params := c.sections[name]
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return copied
}

// Parameter returns the value at section/key, or def when absent.
func (c *Config) Parameter(section, key, def string) string {
	if v, ok := c.sections[section][key]; ok {
		return v
	}
	return def
}

func (c *Config) ParameterInt(section, key string, def int) int {
	raw, ok := c.sections[section][key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return n
}

func (c *Config) ParameterDuration(section, key string, def time.Duration) time.Duration {
	raw, ok := c.sections[section][key]
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return d
}
