// Package i18n translates the messages perms shows to players.
//
// Messages are component.Translation values with a translation key.
// Render resolves them for the locale reported by the player's client,
// falling back to English.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"go.minekube.com/common/minecraft/component"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Translation keys used by perms.
const (
	KeyDatabaseError = "perms.loading.database-error"
	KeyStateError    = "perms.loading.state-error"
	KeyRestricted    = "perms.loading.restricted"
	KeyOpDisabled    = "perms.op-disabled"
	KeyUnknown       = "perms.command.unknown"
	KeyDidYouMean    = "perms.command.did-you-mean"
)

// Fallback is used for clients with an unsupported locale.
var Fallback = language.English

//go:embed translations/*.yml
var embedded embed.FS

type file struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Translator renders translation keys for a locale.
type Translator struct {
	tags     []language.Tag
	matcher  language.Matcher
	printers map[language.Tag]*message.Printer

	mu      sync.Mutex // protects locales
	locales *lru.Cache // client locale -> language.Tag
}

// Default returns a Translator with the embedded translations.
func Default() *Translator {
	t, err := LoadFS(embedded)
	if err != nil {
		panic(err) // embedded translations are always valid
	}
	return t
}

// LoadFS loads every translations/*.yml file of fsys.
func LoadFS(fsys fs.FS) (*Translator, error) {
	paths, err := fs.Glob(fsys, "translations/*.yml")
	if err != nil {
		return nil, fmt.Errorf("error listing translations: %w", err)
	}
	b := catalog.NewBuilder(catalog.Fallback(Fallback))
	tags := []language.Tag{Fallback} // first is the matcher's default
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", p, err)
		}
		var f file
		if err = yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", p, err)
		}
		tag, err := language.Parse(f.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale in %s: %w", p, err)
		}
		for key, msg := range f.Messages {
			if err = b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("invalid message %s in %s: %w", key, p, err)
			}
		}
		if tag != Fallback {
			tags = append(tags, tag)
		}
	}
	t := &Translator{
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		printers: make(map[language.Tag]*message.Printer, len(tags)),
		locales:  lru.New(1024),
	}
	for _, tag := range tags {
		t.printers[tag] = message.NewPrinter(tag, message.Catalog(b))
	}
	return t, nil
}

// Locale returns the supported language best matching the locale reported
// by a client, like "en_us" or "de_DE". Results are cached.
func (t *Translator) Locale(clientLocale string) language.Tag {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.locales.Get(clientLocale); ok {
		return v.(language.Tag)
	}
	tag := t.match(clientLocale)
	t.locales.Add(clientLocale, tag)
	return tag
}

func (t *Translator) match(clientLocale string) language.Tag {
	parsed, err := language.Parse(strings.ReplaceAll(clientLocale, "_", "-"))
	if err != nil {
		return Fallback
	}
	_, i, conf := t.matcher.Match(parsed)
	if conf == language.No {
		return Fallback
	}
	return t.tags[i]
}

// Supported returns the supported languages, Fallback first.
func (t *Translator) Supported() []language.Tag {
	return append([]language.Tag(nil), t.tags...)
}

// Translate returns the message of key in the given language,
// formatted with args. Unknown keys are returned as they are.
func (t *Translator) Translate(tag language.Tag, key string, args ...any) string {
	p, ok := t.printers[tag]
	if !ok {
		p = t.printers[Fallback]
	}
	return p.Sprintf(key, args...)
}

// Render replaces every component.Translation in c by a component.Text
// in the given language. Arguments are rendered as plain text.
// Other components are copied as they are.
func (t *Translator) Render(tag language.Tag, c component.Component) component.Component {
	switch v := c.(type) {
	case *component.Translation:
		args := make([]any, len(v.With))
		for i, w := range v.With {
			args[i] = Plain(t.Render(tag, w))
		}
		return &component.Text{Content: t.Translate(tag, v.Key, args...), S: v.S}
	case *component.Text:
		out := *v
		out.Extra = make([]component.Component, len(v.Extra))
		for i, e := range v.Extra {
			out.Extra[i] = t.Render(tag, e)
		}
		return &out
	default:
		return c
	}
}

// Plain returns the text content of c without styling.
func Plain(c component.Component) string {
	b := new(strings.Builder)
	plain(b, c)
	return b.String()
}

func plain(b *strings.Builder, c component.Component) {
	switch v := c.(type) {
	case *component.Text:
		b.WriteString(v.Content)
		for _, e := range v.Extra {
			plain(b, e)
		}
	case *component.Translation:
		b.WriteString(v.Key)
	}
}
