package images

import (
	"bytes"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepipe/internal/minify"
)

// JPEGQuality is used when re-encoding JPEG files.
const JPEGQuality = 75

// Optimizer shrinks images losslessly where it can. The result is only
// used when it is smaller than the input; unknown formats pass through.
type Optimizer struct {
	Minifier *minify.Minifier
}

// NewOptimizer returns an Optimizer with its own SVG minifier.
func NewOptimizer() *Optimizer {
	return &Optimizer{Minifier: minify.New()}
}

func (o *Optimizer) Optimize(name string, data []byte) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".svg":
		out, err = o.Minifier.SVG(data)
	case ".gif":
		out, err = reencodeGIF(data)
	case ".png":
		out, err = reencodePNG(data)
	case ".jpg", ".jpeg":
		out, err = reencodeJPEG(data)
	default:
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

func reencodeGIF(data []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reencodePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reencodeJPEG(data []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
