package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AUTHWRAP_TARGET.
const EnvPrefix = "AUTHWRAP"

// DefaultPath is read when no config file is named and it exists.
const DefaultPath = "/etc/ntlm-auth-wrap/config.yaml"

// Keys understood by Resolve.
const (
	KeyConfig   = "config"
	KeyVariant  = "variant"
	KeyTarget   = "target"
	KeyFacility = "facility"
	KeyTag      = "tag"
	KeyStrict   = "strict"
	KeyLogLevel = "log_level"
)

// BindEnv binds every key to its AUTHWRAP_* variable.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	for _, key := range []string{KeyConfig, KeyVariant, KeyTarget, KeyFacility, KeyTag, KeyStrict, KeyLogLevel} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Resolve builds the effective config: variant preset, then config file,
// then individual overrides from v (environment or flags).
func Resolve(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if v.IsSet(KeyVariant) {
		preset, err := Preset(v.GetString(KeyVariant))
		if err != nil {
			return nil, err
		}
		cfg = preset
	}

	path := v.GetString(KeyConfig)
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", DefaultPath, err)
		}
	}
	if path != "" {
		loaded, err := LoadFile(path, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v.IsSet(KeyTarget) {
		cfg.Target = v.GetString(KeyTarget)
	}
	if v.IsSet(KeyFacility) {
		cfg.Facility = v.GetString(KeyFacility)
	}
	if v.IsSet(KeyTag) {
		cfg.Tag = v.GetString(KeyTag)
	}
	if v.IsSet(KeyStrict) {
		strict, err := strconv.ParseBool(v.GetString(KeyStrict))
		if err != nil {
			return nil, fmt.Errorf("invalid %s_STRICT %q: %w", EnvPrefix, v.GetString(KeyStrict), err)
		}
		cfg.Strict = strict
	}
	if v.IsSet(KeyLogLevel) {
		cfg.LogLevel = v.GetString(KeyLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
