// Package render draws graph frames onto abstract targets and encodes them
// as SVG or PNG.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format is an output encoding.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

var ErrUnknownFormat = errors.New("unknown render format")

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w %q (use svg or png)", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the encoded output.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// NewTarget creates an encoder of the given format.
func NewTarget(format Format, width, height int) (Encoder, error) {
	switch format {
	case FormatSVG:
		return NewSVGTarget(width, height), nil
	case FormatPNG:
		return NewPNGTarget(width, height)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

// Encode draws one frame in the given format and writes it to w.
func Encode(w io.Writer, format Format, f Frame, opts Options) error {
	t, err := NewTarget(format, int(opts.Width), int(opts.Height))
	if err != nil {
		return err
	}
	Draw(t, f, opts)
	if err := t.Encode(w); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}
