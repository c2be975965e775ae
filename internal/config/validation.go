package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"

	foundationerrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/targets"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := &configurationValidator{config: cfg}
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validatePaths(); err != nil {
		return err
	}
	if err := cv.validateHTML(); err != nil {
		return err
	}
	if err := cv.validateStyles(); err != nil {
		return err
	}
	if err := cv.validateServer(); err != nil {
		return err
	}
	return cv.validateWatch()
}

func invalid(field, format string, args ...any) error {
	return foundationerrors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func (cv *configurationValidator) validatePaths() error {
	p := cv.config.Paths
	for field, v := range map[string]string{
		"paths.source": p.Source,
		"paths.dev":    p.Dev,
		"paths.prod":   p.Prod,
	} {
		if strings.TrimSpace(v) == "" {
			return invalid(field, "%s cannot be empty", field)
		}
	}
	src := filepath.Clean(p.Source)
	for field, out := range map[string]string{"paths.dev": p.Dev, "paths.prod": p.Prod} {
		if filepath.Clean(out) == src {
			return invalid(field, "%s must differ from the source root %q", field, p.Source)
		}
	}
	if filepath.Clean(p.Dev) == filepath.Clean(p.Prod) {
		return invalid("paths.prod", "dev and prod output roots must differ")
	}
	return nil
}

func (cv *configurationValidator) validateHTML() error {
	for _, loc := range cv.config.HTML.Locales {
		if _, err := language.Parse(loc); err != nil {
			return invalid("html.locales", "unknown locale %q: %v", loc, err)
		}
	}
	for _, st := range cv.config.HTML.SafeTags {
		if st.Open == "" || st.Close == "" {
			return invalid("html.safe_tags", "safe tag needs both open and close markers")
		}
	}
	for ratio := range cv.config.HTML.Retina {
		if ratio < 1 {
			return invalid("html.retina", "retina ratio must be >= 1, got %d", ratio)
		}
	}
	if q := cv.config.Images.WebPQuality; q < 0 || q > 100 {
		return invalid("images.webp_quality", "webp quality must be within 0..100, got %d", q)
	}
	return nil
}

func (cv *configurationValidator) validateStyles() error {
	if err := targets.Valid(cv.config.Styles.Targets); err != nil {
		return invalid("styles.targets", "%v", err)
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	if port := cv.config.Server.Port; port < 1 || port > 65535 {
		return invalid("server.port", "server port must be within 1..65535, got %d", port)
	}
	if !strings.HasPrefix(cv.config.Metrics.Path, "/") {
		return invalid("metrics.path", "metrics path must start with '/'")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d < 0 {
		return invalid("watch.debounce", "invalid watch debounce %q", w.Debounce)
	}
	if w.PollInterval != "" {
		pd, err := time.ParseDuration(w.PollInterval)
		if err != nil || pd < time.Second {
			return invalid("watch.poll_interval", "poll interval must be a duration of at least 1s, got %q", w.PollInterval)
		}
	}
	return nil
}
