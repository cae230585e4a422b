package validator

import (
	"fmt"
	"net/url"
	"os"

	"github.com/arcanaland/cardfeed/internal/config"
	"github.com/arcanaland/cardfeed/internal/locale"
	"github.com/arcanaland/cardfeed/internal/logging"
	"github.com/arcanaland/cardfeed/internal/render"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

type Validator struct {
	ConfigPath  string
	LocalesPath string
	Results     ValidationResults

	config  *config.Config
	catalog *locale.Catalog
}

func NewValidator(configPath, localesPath string) *Validator {
	return &Validator{
		ConfigPath:  configPath,
		LocalesPath: localesPath,
		Results:     ValidationResults{},
	}
}

// Validate checks the config file and the locale overrides next to it. The
// returned error is set only when the config file cannot be read at all.
func (v *Validator) Validate() (ValidationResults, error) {
	if err := v.validateConfigFile(); err != nil {
		return v.Results, err
	}

	v.validateLocales()
	v.validateLanguage()
	v.validateFeedSettings()
	v.validateArtSettings()
	v.validateTimeout()
	v.validateOutput()

	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) validateConfigFile() error {
	if _, err := os.Stat(v.ConfigPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", v.ConfigPath)
	}

	cfg, err := config.DecodeFile(v.ConfigPath)
	if err != nil {
		return err
	}
	v.config = cfg
	return nil
}

// validateLocales checks locales.toml overrides, if present
func (v *Validator) validateLocales() {
	v.catalog = locale.NewCatalog(locale.Builtin()...)
	if v.LocalesPath == "" {
		return
	}
	if _, err := os.Stat(v.LocalesPath); os.IsNotExist(err) {
		return
	}

	overrides, err := locale.DecodeOverrides(v.LocalesPath)
	if err != nil {
		v.errorf("%v", err)
		return
	}
	if len(overrides) == 0 {
		v.warnf("no [[locale]] entries found in %s", v.LocalesPath)
	}

	valid := locale.Builtin()
	for _, l := range overrides {
		if l.Name == "" {
			v.warnf("locale %s has no name", l.ID)
		}
		if err := checkEndpoint(l.Endpoint); err != nil {
			v.errorf("locale %s: %v", l.ID, err)
			continue
		}
		valid = append(valid, l)
	}
	v.catalog = locale.NewCatalog(valid...)
}

// checkEndpoint requires an absolute http(s) URL
func checkEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %v", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must use http or https", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return nil
}

func (v *Validator) validateLanguage() {
	if _, err := v.catalog.Get(v.config.Language); err != nil {
		v.errorf("language: %v", err)
	}
}

func (v *Validator) validateFeedSettings() {
	if v.config.Lookahead < 0 {
		v.errorf("lookahead must not be negative (got %d)", v.config.Lookahead)
	}
	if v.config.RequestsPerSecond < 0 {
		v.errorf("requests_per_second must not be negative (got %g)", v.config.RequestsPerSecond)
	}
	if v.config.UserAgent == "" {
		v.warnf("user_agent is empty")
	}
}

func (v *Validator) validateArtSettings() {
	if v.config.ArtWidth < 0 || v.config.ArtHeight < 0 {
		v.errorf("art size must be positive (got %dx%d)", v.config.ArtWidth, v.config.ArtHeight)
	}
	if v.config.ArtCacheSize < 0 {
		v.errorf("art_cache_size must be positive (got %d)", v.config.ArtCacheSize)
	}
}

func (v *Validator) validateTimeout() {
	timeout, err := v.config.Timeout()
	if err != nil {
		v.errorf("%v", err)
		return
	}
	if timeout < 0 {
		v.errorf("request_timeout must not be negative (got %s)", timeout)
	} else if timeout == 0 {
		v.warnf("request_timeout is 0: a stalled network will stall the feed")
	}
}

func (v *Validator) validateOutput() {
	if _, err := render.ParseColorMode(v.config.Colors); err != nil {
		v.errorf("colors: %v", err)
	}
	if _, err := logging.ParseLevel(v.config.LogLevel); err != nil {
		v.errorf("log_level: %v", err)
	}
}
