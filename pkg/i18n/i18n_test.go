package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
	"golang.org/x/text/language"
)

func TestTranslator_Locale(t *testing.T) {
	tr := Default()
	require.Equal(t, language.English, tr.Locale("en_us"))
	require.Equal(t, language.German, tr.Locale("de_DE"))
	require.Equal(t, language.German, tr.Locale("de_de"), "cached")
	require.Equal(t, Fallback, tr.Locale("xx_invalid_locale"))
	require.Equal(t, Fallback, tr.Locale(""))
	require.Equal(t, Fallback, tr.Supported()[0])
}

func TestTranslator_Translate(t *testing.T) {
	tr := Default()
	require.Equal(t, "The vanilla OP system is disabled on this server.",
		tr.Translate(language.English, KeyOpDisabled))
	require.Contains(t, tr.Translate(language.German, KeyOpDisabled), "deaktiviert")
	require.Equal(t, `Unknown command "grop".`, tr.Translate(language.English, KeyUnknown, "grop"))
	require.Equal(t, "no.such.key", tr.Translate(language.English, "no.such.key"))
	// unsupported language falls back to English
	require.Equal(t, tr.Translate(language.English, KeyStateError),
		tr.Translate(language.French, KeyStateError))
}

func TestTranslator_Render(t *testing.T) {
	tr := Default()
	c := tr.Render(language.English, &component.Text{
		Content: "> ",
		Extra: []component.Component{
			&component.Translation{
				Key:  KeyDidYouMean,
				S:    component.Style{Color: color.Red},
				With: []component.Component{&component.Text{Content: "group"}},
			},
		},
	})
	text, ok := c.(*component.Text)
	require.True(t, ok)
	require.Len(t, text.Extra, 1)
	inner := text.Extra[0].(*component.Text)
	require.Equal(t, "Did you mean: group?", inner.Content)
	require.Equal(t, color.Red, inner.S.Color)
	require.Equal(t, "> Did you mean: group?", Plain(c))
}

func TestLoadFS(t *testing.T) {
	tr, err := LoadFS(fstest.MapFS{
		"translations/en.yml": {Data: []byte("locale: en\nmessages:\n  hello: Hello %s\n")},
		"translations/nl.yml": {Data: []byte("locale: nl\nmessages:\n  hello: Hallo %s\n")},
	})
	require.NoError(t, err)
	require.Equal(t, "Hallo Steve", tr.Translate(tr.Locale("nl_nl"), "hello", "Steve"))

	_, err = LoadFS(fstest.MapFS{
		"translations/bad.yml": {Data: []byte("locale: ???\n")},
	})
	require.Error(t, err)
}
