package config

import (
	"errors"
	"fmt"
	"log/syslog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTag is the syslog application identifier radius-debug consumers grep for.
const DefaultTag = "radius-debug"

// Variant names.
const (
	VariantLenient = "lenient"
	VariantStrict  = "strict"
)

// Build-time defaults, set with
//
//	-ldflags "-X github.com/psantana5/ntlm-auth-wrap/internal/config.DefaultVariant=strict"
var (
	DefaultVariant = VariantLenient
	// DefaultTarget overrides the preset's target when non-empty.
	DefaultTarget = ""
)

// Config is everything that differs between deployed wrappers.
type Config struct {
	// Target is the real helper. It is also argv[0] as the helper sees it.
	Target string `json:"target" yaml:"target"`
	// Facility is a syslog facility name, e.g. "local4".
	Facility string `json:"facility" yaml:"facility"`
	// Tag is the syslog application identifier.
	Tag string `json:"tag" yaml:"tag"`
	// Strict aborts with exit 1 and a message on local failures and adds
	// the child's status to the record.
	Strict bool `json:"strict" yaml:"strict"`
	// LogLevel controls stderr diagnostics, not the syslog record.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Lenient is the permissive variant: local4, no status in the record.
func Lenient() *Config {
	return &Config{
		Target:   "/bin/echo",
		Facility: "local4",
		Tag:      DefaultTag,
		Strict:   false,
		LogLevel: "error",
	}
}

// Strict is the variant that fails loudly on local errors.
func Strict() *Config {
	return &Config{
		Target:   "/usr/bin/ntlm_auth",
		Facility: "local5",
		Tag:      DefaultTag,
		Strict:   true,
		LogLevel: "error",
	}
}

// Preset returns the named variant.
func Preset(name string) (*Config, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VariantLenient, "":
		return Lenient(), nil
	case VariantStrict:
		return Strict(), nil
	default:
		return nil, fmt.Errorf("unknown variant %q (want %s or %s)", name, VariantLenient, VariantStrict)
	}
}

// Default returns the build-time default variant with DefaultTarget applied.
func Default() *Config {
	cfg, err := Preset(DefaultVariant)
	if err != nil {
		cfg = Lenient()
	}
	if DefaultTarget != "" {
		cfg.Target = DefaultTarget
	}
	return cfg
}

// LoadFile reads YAML from path over base. Keys missing from the file keep
// base's values.
func LoadFile(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the config is usable by the wrapper.
func (c *Config) Validate() error {
	var errs []error

	if c.Target == "" {
		errs = append(errs, errors.New("target is required"))
	} else if !filepath.IsAbs(c.Target) {
		errs = append(errs, fmt.Errorf("target must be an absolute path, got %q", c.Target))
	}

	if _, err := ParseFacility(c.Facility); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(c.Tag) == "" {
		errs = append(errs, errors.New("tag is required"))
	}

	return errors.Join(errs...)
}

// Priority returns facility|LOG_INFO for the syslog writer.
func (c *Config) Priority() (syslog.Priority, error) {
	facility, err := ParseFacility(c.Facility)
	if err != nil {
		return 0, err
	}
	return facility | syslog.LOG_INFO, nil
}

// YAML renders the config as it would appear in a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

var facilities = map[string]syslog.Priority{
	"kern":     syslog.LOG_KERN,
	"user":     syslog.LOG_USER,
	"mail":     syslog.LOG_MAIL,
	"daemon":   syslog.LOG_DAEMON,
	"auth":     syslog.LOG_AUTH,
	"syslog":   syslog.LOG_SYSLOG,
	"lpr":      syslog.LOG_LPR,
	"news":     syslog.LOG_NEWS,
	"uucp":     syslog.LOG_UUCP,
	"cron":     syslog.LOG_CRON,
	"authpriv": syslog.LOG_AUTHPRIV,
	"ftp":      syslog.LOG_FTP,
	"local0":   syslog.LOG_LOCAL0,
	"local1":   syslog.LOG_LOCAL1,
	"local2":   syslog.LOG_LOCAL2,
	"local3":   syslog.LOG_LOCAL3,
	"local4":   syslog.LOG_LOCAL4,
	"local5":   syslog.LOG_LOCAL5,
	"local6":   syslog.LOG_LOCAL6,
	"local7":   syslog.LOG_LOCAL7,
}

// ParseFacility maps a facility name ("local4", "LOG_LOCAL4") to its value.
func ParseFacility(name string) (syslog.Priority, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "log_")
	if f, ok := facilities[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown syslog facility %q", name)
}

// FacilityNames lists the accepted facility names, sorted.
func FacilityNames() []string {
	names := make([]string, 0, len(facilities))
	for name := range facilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
