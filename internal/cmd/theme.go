package cmd

import (
	"fmt"
	"strings"

	"headterm/internal/alis"
	"headterm/internal/recorder"
)

// recorderTheme converts the binary-wire RGB theme used by ALiS and the
// websocket streamers into the hex-string shape the asciicast v3 header
// carries in its JSON "theme" field, joining the palette entries with
// ":" per the asciicast v3 header format.
func recorderTheme(t *alis.Theme) *recorder.Theme {
	if t == nil {
		return nil
	}
	palette := make([]string, len(t.Palette))
	for i, c := range t.Palette {
		palette[i] = hexRGB(c)
	}
	return &recorder.Theme{
		Fg:      hexRGB(t.Fg),
		Bg:      hexRGB(t.Bg),
		Palette: strings.Join(palette, ":"),
	}
}

func hexRGB(c alis.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
