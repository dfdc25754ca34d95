package console

import (
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
	mcolor "go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
)

func TestAnsiFromLegacy(t *testing.T) {
	color.Disable()
	t.Cleanup(func() { color.Enable = true })

	assert.Equal(t, "plain", AnsiFromLegacy("plain"))
	assert.Equal(t, "redbold", AnsiFromLegacy("§cred§r§lbold"))
}

func TestAnsi(t *testing.T) {
	color.Disable()
	t.Cleanup(func() { color.Enable = true })

	out := Ansi(&component.Text{
		Content: "denied",
		S:       component.Style{Color: mcolor.Red},
		Extra:   []component.Component{&component.Text{Content: "!"}},
	})
	assert.Equal(t, "denied!", out)
}
