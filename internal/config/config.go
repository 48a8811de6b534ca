package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/esfa/deskctl/internal/util/viper"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

const (
	BaseFileName       = "appsettings"
	DefaultEnvironment = "development"
	DefaultSection     = "settings"

	UserNameConfigPath     = "username"
	UserPasswordConfigPath = "userpassword"
	BaseURLConfigPath      = "base-url"
	FilterConfigPath       = "filter"
	PerPageConfigPath      = "per-page"
	FanOutConfigPath       = "fan-out"
	UserCooldownConfigPath = "user-cooldown"
	PauseConfigPath        = "pause"
	MaxPassesConfigPath    = "max-passes"
	LogLevelConfigPath     = "log-level"
	LogFileConfigPath      = "log-file"
	OutputConfigPath       = "output"

	DefaultBaseURL      = "https://esfa.zendesk.com/"
	DefaultFilter       = "created>2019-07-20"
	DefaultPerPage      = 100
	DefaultFanOut       = 4
	DefaultUserCooldown = 15 * time.Second
	DefaultPause        = 240 * time.Second
	DefaultLogLevel     = "info"
	DefaultOutput       = "text"
)

// Empty type to represent the _type_ Config. Genesis is to support a key in a Context
type Key struct{}

// ConfigKey is a global instance of the Key type
var ConfigKey = Key{}

// Hook is the restricted view of the configuration handed to commands. Keys
// are relative to the settings section.
type Hook interface {
	// GetString returns a string value from the configuration
	GetString(key string) string
	// GetBool returns a boolean value from the configuration
	GetBool(key string) bool
	// GetInt returns an integer value from the configuration
	GetInt(key string) int
	// GetIntOrElse returns an integer value from the configuration or a default
	GetIntOrElse(key string, orElse int) int
	// GetDuration returns a duration value, accepting "15s" style strings
	GetDuration(key string) time.Duration
	// Set sets an override for a given key
	Set(key string, value any)
	// BindFlag takes a specific configuration path and binds it to a specific flag
	BindFlag(configPath string, f *pflag.Flag) error
	// GetEnvironment returns the overlay environment name
	GetEnvironment() string
	// GetPaths returns the settings files that were read, base first
	GetPaths() []string
}

// SectionConfig is a viper scoped to one top level section of the settings
// files, with the environment overlay already merged in.
type SectionConfig struct {
	*v.Viper
	Section     string
	Environment string
	Paths       []string
}

// FilePaths returns the base settings file and its environment overlay in dir
func FilePaths(dir, environment string) []string {
	paths := []string{filepath.Join(dir, BaseFileName+".json")}
	if environment = strings.TrimSpace(environment); environment != "" {
		paths = append(paths, filepath.Join(dir, fmt.Sprintf("%s.%s.json", BaseFileName, environment)))
	}
	return paths
}

// Load reads appsettings.json and appsettings.<environment>.json from dir.
// Both files are optional; values can come entirely from DESKCTL_ prefixed
// environment variables or flags.
func Load(dir, environment, section string) (*SectionConfig, error) {
	if section == "" {
		section = DefaultSection
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	vip := viper.NewViper()
	loaded, err := viper.LoadLayered(vip, FilePaths(dir, environment)...)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	rv := &SectionConfig{
		Viper:       vip,
		Section:     strings.ToLower(section),
		Environment: environment,
		Paths:       loaded,
	}
	rv.setDefaults()
	return rv, nil
}

func (c *SectionConfig) setDefaults() {
	defaults := map[string]any{
		BaseURLConfigPath:      DefaultBaseURL,
		FilterConfigPath:       DefaultFilter,
		PerPageConfigPath:      DefaultPerPage,
		FanOutConfigPath:       DefaultFanOut,
		UserCooldownConfigPath: DefaultUserCooldown,
		PauseConfigPath:        DefaultPause,
		MaxPassesConfigPath:    0,
		LogLevelConfigPath:     DefaultLogLevel,
		OutputConfigPath:       DefaultOutput,
	}
	for k, val := range defaults {
		c.SetDefault(c.key(k), val)
	}
}

func (c *SectionConfig) key(k string) string {
	return c.Section + "." + k
}

func (c *SectionConfig) GetString(key string) string {
	return c.Viper.GetString(c.key(key))
}

func (c *SectionConfig) GetBool(key string) bool {
	return c.Viper.GetBool(c.key(key))
}

func (c *SectionConfig) GetInt(key string) int {
	return c.Viper.GetInt(c.key(key))
}

func (c *SectionConfig) GetIntOrElse(key string, orElse int) int {
	if c.IsSet(c.key(key)) {
		return c.Viper.GetInt(c.key(key))
	}
	return orElse
}

func (c *SectionConfig) GetDuration(key string) time.Duration {
	return c.Viper.GetDuration(c.key(key))
}

func (c *SectionConfig) Set(key string, value any) {
	c.Viper.Set(c.key(key), value)
}

func (c *SectionConfig) BindFlag(configPath string, f *pflag.Flag) error {
	return c.BindPFlag(c.key(configPath), f)
}

func (c *SectionConfig) GetEnvironment() string {
	return c.Environment
}

func (c *SectionConfig) GetPaths() []string {
	return c.Paths
}
