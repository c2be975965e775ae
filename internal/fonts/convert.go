package fonts

import (
	"context"

	"git.home.luguber.info/inful/sitepipe/internal/tools"
)

// Converter turns font bytes of one format into another using an external tool.
type Converter struct {
	Runner tools.Runner
	// Binary is the tool's name or path.
	Binary string
}

// OTFToTTF converts an OpenType/CFF font to TrueType. The tool is invoked
// as `otf2ttf <in.otf> -o <out.ttf>`.
func (c Converter) OTFToTTF(ctx context.Context, name string, otf []byte) ([]byte, error) {
	stem := Stem(name)
	return tools.RunFile(ctx, c.Runner, c.Binary, stem+".otf", otf, stem+".ttf",
		func(in, out string) []string { return []string{in, "-o", out} })
}

// TTFToWOFF2 re-encodes a TrueType font as WOFF2. woff2_compress writes
// <stem>.woff2 next to its input.
func (c Converter) TTFToWOFF2(ctx context.Context, name string, ttf []byte) ([]byte, error) {
	stem := Stem(name)
	return tools.RunFile(ctx, c.Runner, c.Binary, stem+".ttf", ttf, stem+".woff2",
		func(in, _ string) []string { return []string{in} })
}
