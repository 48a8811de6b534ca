package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Settings is the validated, typed form of the configuration the cleanup
// runs need.
type Settings struct {
	UserName     string
	UserPassword string
	BaseURL      string
	Filter       string
	PerPage      int
	FanOut       int
	UserCooldown time.Duration
	Pause        time.Duration
	MaxPasses    int
}

// GetSettings reads the settings out of cfg and validates them
func GetSettings(cfg Hook) (*Settings, error) {
	s := &Settings{
		UserName:     strings.TrimSpace(cfg.GetString(UserNameConfigPath)),
		UserPassword: cfg.GetString(UserPasswordConfigPath),
		BaseURL:      strings.TrimSpace(cfg.GetString(BaseURLConfigPath)),
		Filter:       strings.TrimSpace(cfg.GetString(FilterConfigPath)),
		PerPage:      cfg.GetIntOrElse(PerPageConfigPath, DefaultPerPage),
		FanOut:       cfg.GetIntOrElse(FanOutConfigPath, DefaultFanOut),
		UserCooldown: cfg.GetDuration(UserCooldownConfigPath),
		Pause:        cfg.GetDuration(PauseConfigPath),
		MaxPasses:    cfg.GetInt(MaxPassesConfigPath),
	}
	return s, s.Validate()
}

// Validate reports every problem with the settings at once
func (s *Settings) Validate() error {
	var errs []error
	if s.UserName == "" {
		errs = append(errs, fmt.Errorf("%s is required", UserNameConfigPath))
	}
	if s.UserPassword == "" {
		errs = append(errs, fmt.Errorf("%s is required", UserPasswordConfigPath))
	}
	if u, err := url.Parse(s.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s %q is not an absolute URL", BaseURLConfigPath, s.BaseURL))
	}
	if s.Filter == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", FilterConfigPath))
	}
	if s.PerPage <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", PerPageConfigPath))
	}
	if s.FanOut <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", FanOutConfigPath))
	}
	if s.UserCooldown < 0 || s.Pause < 0 {
		errs = append(errs, fmt.Errorf("%s and %s must not be negative", UserCooldownConfigPath, PauseConfigPath))
	}
	if s.MaxPasses < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", MaxPassesConfigPath))
	}
	return errors.Join(errs...)
}
