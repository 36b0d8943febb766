package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"headterm/internal/alis"
)

var hexColorRe = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// ParseHexRGB parses a "#RRGGBB" or "RRGGBB" string into an alis.RGB, as
// used by --theme-fg/--theme-bg.
func ParseHexRGB(s string) (alis.RGB, error) {
	if !hexColorRe.MatchString(s) {
		return alis.RGB{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	s = trimHash(s)
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return alis.RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return alis.RGB{R: byte(r), G: byte(g), B: byte(b)}, nil
}

func trimHash(s string) string {
	if len(s) > 0 && s[0] == '#' {
		return s[1:]
	}
	return s
}

// ResolveTheme builds the Theme to record/stream: explicit --theme-fg
// and --theme-bg values win when both are set; otherwise, on an
// attached terminal, the foreground/background are auto-detected via
// termenv (grounded on h2's internal/cmd/term_colors.go use of
// termenv.NewOutput + term.IsTerminal). A resolved theme always carries
// an 8-color ANSI palette; auto-detection with no attached terminal, or
// with only one of fg/bg set, yields nil (no theme data).
func ResolveTheme(explicitFg, explicitBg string) (*alis.Theme, error) {
	if explicitFg != "" && explicitBg != "" {
		fg, err := ParseHexRGB(explicitFg)
		if err != nil {
			return nil, err
		}
		bg, err := ParseHexRGB(explicitBg)
		if err != nil {
			return nil, err
		}
		return &alis.Theme{Fg: fg, Bg: bg, Palette: ansi8Palette()}, nil
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, nil
	}
	output := termenv.NewOutput(os.Stdout)
	fgColor := output.ForegroundColor()
	bgColor := output.BackgroundColor()
	if fgColor == nil || bgColor == nil {
		return nil, nil
	}
	return &alis.Theme{Fg: termenvToRGB(fgColor), Bg: termenvToRGB(bgColor), Palette: ansi8Palette()}, nil
}

// termenvToRGB converts a termenv.Color to an alis.RGB. Grounded on h2's
// internal/session/virtualterminal.ColorToX11: a termenv.RGBColor is
// already a "#RRGGBB" string, so it is parsed directly; any other
// concrete color (ANSI index, etc.) goes through termenv.ConvertToRGB,
// which yields floating-point 0..1 channel values.
func termenvToRGB(c termenv.Color) alis.RGB {
	if hex, ok := c.(termenv.RGBColor); ok {
		if rgb, err := ParseHexRGB(string(hex)); err == nil {
			return rgb
		}
	}
	rgb := termenv.ConvertToRGB(c)
	return alis.RGB{
		R: byte(rgb.R*255 + 0.5),
		G: byte(rgb.G*255 + 0.5),
		B: byte(rgb.B*255 + 0.5),
	}
}

// ansi8Palette is the conventional 8-color ANSI palette used when a
// theme is resolved but the terminal does not expose a full 16/256
// color palette to query.
func ansi8Palette() []alis.RGB {
	return []alis.RGB{
		{0x00, 0x00, 0x00}, {0xCD, 0x00, 0x00}, {0x00, 0xCD, 0x00}, {0xCD, 0xCD, 0x00},
		{0x00, 0x00, 0xEE}, {0xCD, 0x00, 0xCD}, {0x00, 0xCD, 0xCD}, {0xE5, 0xE5, 0xE5},
	}
}
