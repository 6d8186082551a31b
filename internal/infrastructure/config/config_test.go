package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeokrohn/wxc-nanp/internal/domain/dialplan"
	"github.com/jeokrohn/wxc-nanp/internal/infrastructure/webexcalling"
	"github.com/jeokrohn/wxc-nanp/internal/service/provisioning"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "90", cfg.SteeringPrefix)
	assert.False(t, cfg.ReadOnly)
	assert.False(t, cfg.PatternsOnly)

	table, err := cfg.FormatTable()
	require.NoError(t, err)
	assert.Equal(t, dialplan.DefaultCarrierFormatTable(), table)
}

func TestLoad_FromFile(t *testing.T) {
	content := `
npa: "816"
nxx: "555"
readonly: true
location: Kansas City
steering_prefix: "91"
webex:
  timeout: 10s
  page_size: 50
carrier_table:
  hnpa_local:
    digits: 10
  fnpa_local:
    digits: 10
  hnpa_toll:
    digits: 10
    prefix: "1"
  fnpa_toll:
    digits: 10
    prefix: "1"
`
	path := filepath.Join(t.TempDir(), "localtp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "816", cfg.NPA)
	assert.Equal(t, "555", cfg.NXX)
	assert.True(t, cfg.ReadOnly)
	assert.Equal(t, "Kansas City", cfg.Location)
	assert.Equal(t, "91", cfg.SteeringPrefix)
	assert.Equal(t, 10*time.Second, cfg.Webex.Timeout)
	assert.Equal(t, 50, cfg.Webex.PageSize)

	table, err := cfg.FormatTable()
	require.NoError(t, err)
	assert.Equal(t, dialplan.DialFormat{DigitCount: 10}, table[dialplan.CallTypeHomeLocal])
	assert.Equal(t, dialplan.DialFormat{DigitCount: 10, Prefix: "1"}, table[dialplan.CallTypeHomeToll])
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("WXC_NPA", "913")
	t.Setenv("WXC_NXX", "400")
	t.Setenv("WXC_WEBEX__TOKEN", "env-token")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "913", cfg.NPA)
	assert.Equal(t, "400", cfg.NXX)
	assert.Equal(t, "env-token", cfg.Webex.Token)
}

func TestLoad_WebexTokenFallback(t *testing.T) {
	t.Setenv("WEBEX_TOKEN", "legacy-token")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", cfg.Webex.Token)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LogLevel: "info",
			NPA:      "816",
			NXX:      "555",
			Location: "Kansas City",
			Webex:    webexcalling.Config{Token: "secret"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid location scoped",
			mutate: func(c *Config) {},
		},
		{
			name: "valid organization scoped",
			mutate: func(c *Config) {
				c.Location = ""
				c.Organization = true
			},
		},
		{
			name: "patterns only needs neither scope nor token",
			mutate: func(c *Config) {
				c.Location = ""
				c.Webex.Token = ""
				c.PatternsOnly = true
			},
		},
		{
			name:    "missing npa",
			mutate:  func(c *Config) { c.NPA = "" },
			wantErr: "invalid configuration",
		},
		{
			name:    "npa out of range",
			mutate:  func(c *Config) { c.NPA = "116" },
			wantErr: "NPA",
		},
		{
			name:    "scope conflict",
			mutate:  func(c *Config) { c.Organization = true },
			wantErr: "mutually exclusive",
		},
		{
			name:    "missing scope",
			mutate:  func(c *Config) { c.Location = "" },
			wantErr: "location",
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Webex.Token = "" },
			wantErr: "token",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "invalid configuration",
		},
		{
			name: "bad carrier table",
			mutate: func(c *Config) {
				c.CarrierTable = map[string]DialFormatConfig{"hnpa_local": {Digits: 7}}
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			switch {
			case tt.name == "bad carrier table":
				require.Error(t, err)
			case tt.wantErr == "":
				require.NoError(t, err)
			default:
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_FormatTable_UnknownCallType(t *testing.T) {
	cfg := &Config{CarrierTable: map[string]DialFormatConfig{"interstellar": {Digits: 10}}}
	_, err := cfg.FormatTable()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interstellar")
}

func TestConfig_Mode(t *testing.T) {
	assert.Equal(t, provisioning.ModeApply, (&Config{}).Mode())
	assert.Equal(t, provisioning.ModeReadOnly, (&Config{ReadOnly: true}).Mode())
	assert.Equal(t, provisioning.ModePatternsOnly, (&Config{PatternsOnly: true}).Mode())
	assert.Equal(t, provisioning.ModePatternsOnly, (&Config{ReadOnly: true, PatternsOnly: true}).Mode())
}
