package config

import (
	"fmt"
	"time"
)

const defaultDebounce = 300 * time.Millisecond

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&PathsDefaultApplier{},
			&HTMLDefaultApplier{},
			&AssetsDefaultApplier{},
			&ToolsDefaultApplier{},
			&ServerDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// PathsDefaultApplier reproduces the src/build/prod layout.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	ps := &cfg.Paths
	setDefault(&ps.Source, "src")
	setDefault(&ps.Dev, "build")
	setDefault(&ps.Prod, "prod")
	setDefault(&ps.Archive, "prod.zip")
	setDefault(&ps.HTML, "html")
	setDefault(&ps.Blocks, "blocks")
	setDefault(&ps.Styles, "scss")
	setDefault(&ps.Images, "img")
	setDefault(&ps.SVGIcons, "svgicons")
	setDefault(&ps.Files, "files")
	setDefault(&ps.Scripts, "js")
	setDefault(&ps.Fonts, "fonts")
	setDefault(&ps.FontStylesheet, "scss/base/_fontsAutoInclude.scss")
	return nil
}

// HTMLDefaultApplier handles include, typography and webp markup defaults.
type HTMLDefaultApplier struct{}

func (h *HTMLDefaultApplier) Domain() string { return "html" }

func (h *HTMLDefaultApplier) ApplyDefaults(cfg *Config) error {
	hc := &cfg.HTML
	setDefault(&hc.IncludePrefix, "@@")
	if len(hc.Locales) == 0 {
		hc.Locales = []string{"uk", "en-US"}
	}
	if len(hc.SafeTags) == 0 {
		hc.SafeTags = []SafeTag{
			{Open: "<?php", Close: "?>"},
			{Open: "<no-typography>", Close: "</no-typography>"},
		}
	}
	if len(hc.WebPExtensions) == 0 {
		hc.WebPExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
	}
	if len(hc.Retina) == 0 {
		hc.Retina = map[int]string{1: "", 2: "@2x"}
	}
	return nil
}

// AssetsDefaultApplier handles styles, scripts, images, watch, notify and metrics.
type AssetsDefaultApplier struct{}

func (a *AssetsDefaultApplier) Domain() string { return "assets" }

func (a *AssetsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Styles.Targets) == 0 {
		cfg.Styles.Targets = []string{"chrome87", "edge88", "firefox78", "safari13", "ios13"}
	}
	setDefault(&cfg.Scripts.ProdTarget, "es2015")
	if cfg.Images.WebPQuality == 0 {
		cfg.Images.WebPQuality = 75
	}
	setDefault(&cfg.Watch.Debounce, defaultDebounce.String())
	setDefault(&cfg.Notify.Subject, "sitepipe.failures")
	setDefault(&cfg.Metrics.Path, "/metrics")
	return nil
}

// ToolsDefaultApplier resolves external binaries by name on PATH.
type ToolsDefaultApplier struct{}

func (t *ToolsDefaultApplier) Domain() string { return "tools" }

func (t *ToolsDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Tools.Sass, "sass")
	setDefault(&cfg.Tools.CWebP, "cwebp")
	setDefault(&cfg.Tools.OTF2TTF, "otf2ttf")
	setDefault(&cfg.Tools.WOFF2, "woff2_compress")
	return nil
}

// ServerDefaultApplier handles preview server defaults.
type ServerDefaultApplier struct{}

func (s *ServerDefaultApplier) Domain() string { return "server" }

func (s *ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Server.Host, "localhost")
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	return nil
}
