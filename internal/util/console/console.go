// Package console renders chat components for terminals.
package console

import (
	"strings"

	"github.com/gookit/color"
	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec/legacy"
)

var codec = &legacy.Legacy{}

// Ansi renders c with ANSI escape codes.
func Ansi(c component.Component) string {
	b := new(strings.Builder)
	if err := codec.Marshal(b, c); err != nil {
		return ""
	}
	return AnsiFromLegacy(b.String())
}

// AnsiFromLegacy replaces the legacy formatting codes in s with
// ANSI escape codes. Formats stack until the next reset code.
func AnsiFromLegacy(s string) string {
	b := new(strings.Builder)
	var (
		styles []color.Color
		code   bool
	)
	for _, r := range s {
		switch {
		case r == legacy.DefaultChar && !code:
			code = true
		case code:
			code = false
			if r == 'r' {
				styles = styles[:0]
				continue
			}
			c, ok := codes[r]
			if !ok {
				c = color.OpReset
			}
			styles = append(styles, c)
		case len(styles) == 0:
			b.WriteRune(r)
		default:
			out := string(r)
			for i := len(styles) - 1; i >= 0; i-- {
				out = styles[i].Sprint(out)
			}
			b.WriteString(out)
		}
	}
	return b.String()
}

// codes maps legacy format codes to terminal colors.
var codes = map[rune]color.Color{
	'0': color.Black,
	'1': color.Blue,
	'2': color.Green,
	'3': color.Cyan,
	'4': color.Red,
	'5': color.Magenta,
	'6': color.Yellow,
	'7': color.White,
	'8': color.Gray,
	'9': color.LightCyan,
	'a': color.LightGreen,
	'b': color.LightBlue,
	'c': color.LightRed,
	'd': color.LightMagenta,
	'e': color.LightYellow,
	'f': color.LightWhite,
	'k': color.OpConcealed,
	'l': color.OpBold,
	'm': color.OpStrikethrough,
	'n': color.OpUnderscore,
	'o': color.OpItalic,
}
