package config

import "git.home.luguber.info/inful/sitepipe/internal/foundation/normalization"

// Mode selects the dev or prod pipeline.
type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

var modes = normalization.New("mode", map[string]Mode{
	"":            ModeDev,
	"dev":         ModeDev,
	"development": ModeDev,
	"prod":        ModeProd,
	"production":  ModeProd,
})

// ParseMode normalizes raw and rejects unknown modes.
func ParseMode(raw string) (Mode, error) {
	return modes.Parse(raw)
}

func (m Mode) String() string { return string(m) }
