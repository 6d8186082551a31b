package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
	"github.com/jeokrohn/wxc-nanp/internal/infrastructure/localityguide"
	"github.com/jeokrohn/wxc-nanp/internal/infrastructure/webexcalling"
	"github.com/jeokrohn/wxc-nanp/internal/service/provisioning"
)

// Config is the resolved run configuration: defaults, then optional
// YAML file, then WXC_ environment variables, then CLI flags (applied
// by the command layer).
type Config struct {
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn error"`

	NPA string `koanf:"npa" validate:"required,len=3,numeric"`
	NXX string `koanf:"nxx" validate:"required,len=3,numeric"`

	ReadOnly     bool `koanf:"readonly"`
	PatternsOnly bool `koanf:"patternsonly"`

	Location     string `koanf:"location"`
	Organization bool   `koanf:"organization"`

	SteeringPrefix string                      `koanf:"steering_prefix" validate:"omitempty,numeric"`
	CarrierTable   map[string]DialFormatConfig `koanf:"carrier_table"`

	Guide localityguide.Config `koanf:"guide"`
	Webex webexcalling.Config  `koanf:"webex"`
}

// DialFormatConfig is one row of the carrier format table
type DialFormatConfig struct {
	Digits int    `koanf:"digits"`
	Prefix string `koanf:"prefix"`
}

// Load resolves configuration from defaults, an optional YAML file and
// WXC_ prefixed environment variables (double underscore nests keys,
// e.g. WXC_WEBEX__TOKEN -> webex.token).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		LogLevel:       "info",
		SteeringPrefix: dialplan.DefaultSteeringPrefix,
	}
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("WXC_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "WXC_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// the original tool reads its token from WEBEX_TOKEN
	if cfg.Webex.Token == "" {
		cfg.Webex.Token = os.Getenv("WEBEX_TOKEN")
	}

	return &cfg, nil
}

// Validate checks the resolved configuration, including the cross-field
// constraints the CLI flags cannot express on their own.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Home(); err != nil {
		return err
	}
	if c.Location != "" && c.Organization {
		return fmt.Errorf("location and organization scope are mutually exclusive")
	}
	if !c.PatternsOnly {
		if c.Location == "" && !c.Organization {
			return fmt.Errorf("a location (or organization scope) is required unless running patterns-only")
		}
		if c.Webex.Token == "" {
			return fmt.Errorf("an access token is required unless running patterns-only")
		}
	}
	if _, err := c.FormatTable(); err != nil {
		return err
	}
	return nil
}

// Home returns the validated home NPA/NXX
func (c *Config) Home() (dialplan.NpaNxx, error) {
	return dialplan.NewNpaNxx(c.NPA, c.NXX)
}

// Mode resolves the run mode. Patterns-only wins over readonly since it
// is the stronger guarantee.
func (c *Config) Mode() provisioning.Mode {
	switch {
	case c.PatternsOnly:
		return provisioning.ModePatternsOnly
	case c.ReadOnly:
		return provisioning.ModeReadOnly
	default:
		return provisioning.ModeApply
	}
}

// FormatTable builds the carrier format table from configuration,
// falling back to the published default table when none is configured.
// Keys are the call type names: hnpa_local, fnpa_local, hnpa_toll,
// fnpa_toll.
func (c *Config) FormatTable() (dialplan.CarrierFormatTable, error) {
	if len(c.CarrierTable) == 0 {
		return dialplan.DefaultCarrierFormatTable(), nil
	}
	table := dialplan.CarrierFormatTable{}
	for key, row := range c.CarrierTable {
		ct := dialplan.CallType(key)
		if !ct.IsValid() {
			return nil, fmt.Errorf("carrier_table: unknown call type %q", key)
		}
		table[ct] = dialplan.DialFormat{DigitCount: row.Digits, Prefix: row.Prefix}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
