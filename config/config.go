// Package config loads deployment/process configuration and the fuzzy
// rule file path the decision core needs at init (spec §6 tunables,
// SPEC_FULL §A.3).
//
// Grounded on simple/config.go's LoadConfig: a flat key=value text file
// selects a named profile out of a fixed table, then overlays any
// remaining lines as raw key/value overrides. Generalized here from a
// fixed beta/prod deployment pair to named AI tunable profiles.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Profile is one named set of process/deployment settings plus the AI
// tunable constants spec §6 lists (MIN_PRIORITY, MAXPASS, NUM_CHAINS, ...).
type Profile struct {
	Name string

	LogDirectory string
	RuleFilePath string

	DebugServerPort int

	TelemetryDSN struct {
		RdsHost string
		RdsPort string
		RdsUser string
		RdsName string
		AwsRole string
	}

	MinPriority         float64
	NextScanMinPriority float64
	MaxPass             int
	NumChains           int
	HeroGoldCost        int
	ScoutTurnDistance   float64
	MainTurnDistance    float64

	Overrides map[string]string
}

var profiles = map[string]Profile{
	"dev": {
		Name:                "dev",
		LogDirectory:        "./logs",
		RuleFilePath:        "config/ai/object-priorities.txt",
		DebugServerPort:     9100,
		MinPriority:         0.3,
		NextScanMinPriority: 1.0,
		MaxPass:             30,
		NumChains:           5,
		HeroGoldCost:        2500,
		ScoutTurnDistance:   5,
		MainTurnDistance:    10,
	},
	"prod": {
		Name:                "prod",
		LogDirectory:        "/var/log/aicore",
		RuleFilePath:        "config/ai/object-priorities.txt",
		DebugServerPort:     9100,
		MinPriority:         0.3,
		NextScanMinPriority: 1.0,
		MaxPass:             30,
		NumChains:           8,
		HeroGoldCost:        2500,
		ScoutTurnDistance:   5,
		MainTurnDistance:    10,
	},
}

// ErrConfigMissing is the fatal error kind spec §7 names for a missing
// deployment config or fuzzy rule file.
type ErrConfigMissing struct {
	Path string
}

func (e ErrConfigMissing) Error() string {
	return fmt.Sprintf("config: missing required file %q", e.Path)
}

// Load reads filename, selects the profile named by its "profile=" line,
// and overlays every other "key=value" line as a raw override. Mirrors
// LoadConfig's stack-name-then-overlay shape, but returns an error instead
// of os.Exit(1), since the core treats a missing/malformed config as a
// single ConfigMissing error the caller decides how to handle.
func Load(filename string) (Profile, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return Profile{}, ErrConfigMissing{Path: filename}
	}

	profileName := ""
	overrides := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if key == "profile" {
			profileName = value
			continue
		}
		overrides[key] = value
	}

	if profileName == "" {
		return Profile{}, xerrors.Errorf("config: %s has no 'profile=' line", filename)
	}

	profile, ok := profiles[profileName]
	if !ok {
		return Profile{}, xerrors.Errorf("config: unknown profile %q in %s", profileName, filename)
	}

	profile.Overrides = overrides
	if err := applyOverrides(&profile, overrides); err != nil {
		return Profile{}, xerrors.Errorf("config: applying overrides from %s: %w", filename, err)
	}

	return profile, nil
}

func applyOverrides(p *Profile, overrides map[string]string) error {
	for key, value := range overrides {
		switch key {
		case "logDirectory":
			p.LogDirectory = value
		case "ruleFilePath":
			p.RuleFilePath = value
		case "debugServerPort":
			n, err := strconv.Atoi(value)
			if err != nil {
				return xerrors.Errorf("debugServerPort: %w", err)
			}
			p.DebugServerPort = n
		case "rdsHost":
			p.TelemetryDSN.RdsHost = value
		case "rdsPort":
			p.TelemetryDSN.RdsPort = value
		case "rdsUser":
			p.TelemetryDSN.RdsUser = value
		case "rdsName":
			p.TelemetryDSN.RdsName = value
		case "awsRole":
			p.TelemetryDSN.AwsRole = value
		case "minPriority":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return xerrors.Errorf("minPriority: %w", err)
			}
			p.MinPriority = f
		case "maxPass":
			n, err := strconv.Atoi(value)
			if err != nil {
				return xerrors.Errorf("maxPass: %w", err)
			}
			p.MaxPass = n
		case "numChains":
			n, err := strconv.Atoi(value)
			if err != nil {
				return xerrors.Errorf("numChains: %w", err)
			}
			p.NumChains = n
		}
	}
	return nil
}

// RuleFileExists is a narrow existence check the core's init path uses to
// surface ConfigMissing for the fuzzy rule file specifically, separate
// from the process config file itself.
func RuleFileExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return ErrConfigMissing{Path: path}
	}
	return nil
}
