// Package memory is an in-memory engine.Engine resolving rules from a YAML
// Document. It backs the perms binary and tests; production setups plug
// their own engine in.
package memory

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/robinbraemer/event"
	"github.com/zyedidia/generic/multimap"
	"golang.org/x/exp/maps"

	"go.minekube.com/perms/pkg/engine"
	"go.minekube.com/perms/pkg/engine/registry"
)

// Options are the options for an Engine.
type Options struct {
	// Event fires recalculation events, defaults to event.Nop.
	Event    event.Manager
	Registry engine.Registry // defaults to registry.New()
	Logger   logr.Logger
}

// Engine is an in-memory engine.Engine.
type Engine struct {
	log      logr.Logger
	event    event.Manager
	registry engine.Registry

	mu         sync.RWMutex // protects following fields
	doc        *Document
	inheritors multimap.MultiMap[string, string] // group -> groups inheriting it
	users      map[uuid.UUID]*user
}

var _ engine.Engine = (*Engine)(nil)

// New returns an Engine with an empty Document.
func New(opts Options) *Engine {
	if opts.Event == nil {
		opts.Event = event.Nop
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	e := &Engine{
		log:      opts.Logger.WithName("memory"),
		event:    opts.Event,
		registry: opts.Registry,
		users:    map[uuid.UUID]*user{},
	}
	e.setDocument(&Document{})
	return e
}

// LoadFile replaces the rules with the Document at path.
func (e *Engine) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening rules file: %w", err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return err
	}
	e.Replace(doc)
	return nil
}

// Replace replaces all rules with doc and fires a
// UserDataRecalculateEvent for every loaded user.
func (e *Engine) Replace(doc *Document) {
	doc.normalize()
	e.mu.Lock()
	e.setDocument(doc)
	loaded := maps.Values(e.users)
	e.mu.Unlock()

	e.log.Info("loaded rules", "groups", len(doc.Groups), "users", len(doc.Users))
	for _, u := range loaded {
		e.event.Fire(engine.NewUserDataRecalculateEvent(u.id, u.username))
	}
}

// setDocument must be called with mu held.
func (e *Engine) setDocument(doc *Document) {
	doc.normalize()
	e.doc = doc
	e.inheritors = multimap.NewMapSlice[string, string]()
	for name, g := range doc.Groups {
		for _, ref := range g.Inherits {
			e.inheritors.Put(ref.Name, name)
		}
		e.register(g.Permissions)
	}
	for _, u := range doc.Users {
		e.register(u.Permissions)
	}
}

func (e *Engine) register(rules []Rule) {
	for _, r := range rules {
		if r.Permission != "*" && !strings.HasSuffix(r.Permission, ".*") {
			e.registry.Insert(r.Permission)
		}
	}
}

// LoadUser implements engine.Engine.
// Users missing in the Document are loaded with no data of their own.
func (e *Engine) LoadUser(ctx context.Context, id uuid.UUID, username string) (engine.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u := &user{e: e, id: id, username: username}
	e.mu.Lock()
	e.users[id] = u
	e.mu.Unlock()
	e.log.V(1).Info("loaded user", "id", id, "name", username)
	return u, nil
}

// User implements engine.Engine.
func (e *Engine) User(id uuid.UUID) (engine.User, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.users[id]
	return u, ok
}

// UnloadUser implements engine.Engine.
func (e *Engine) UnloadUser(id uuid.UUID) {
	e.mu.Lock()
	delete(e.users, id)
	e.mu.Unlock()
}

// Registry implements engine.Engine.
func (e *Engine) Registry() engine.Registry { return e.registry }

// Groups returns the names of all groups.
func (e *Engine) Groups() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Keys(e.doc.Groups)
}

// SetUserPermission adds or replaces a rule of the user with the
// given name or identity and fires a UserDataRecalculateEvent if loaded.
func (e *Engine) SetUserPermission(key string, rule Rule) {
	rule.Permission = strings.ToLower(strings.TrimSpace(rule.Permission))
	key = strings.ToLower(key)

	e.mu.Lock()
	u := e.doc.Users[key]
	if u == nil {
		u = new(UserData)
		e.doc.Users[key] = u
	}
	u.Permissions = setRule(u.Permissions, rule)
	e.register([]Rule{rule})
	var recalc []*user
	for _, lu := range e.users {
		if lu.matches(key) {
			recalc = append(recalc, lu)
		}
	}
	e.mu.Unlock()

	for _, lu := range recalc {
		e.event.Fire(engine.NewUserDataRecalculateEvent(lu.id, lu.username))
	}
}

// SetGroupPermission adds or replaces a rule of group and fires a
// GroupDataRecalculateEvent for it and every group inheriting it.
func (e *Engine) SetGroupPermission(group string, rule Rule) {
	rule.Permission = strings.ToLower(strings.TrimSpace(rule.Permission))
	group = strings.ToLower(group)

	e.mu.Lock()
	g := e.doc.Groups[group]
	if g == nil {
		g = new(Group)
		e.doc.Groups[group] = g
	}
	g.Permissions = setRule(g.Permissions, rule)
	e.register([]Rule{rule})
	affected := e.inheritorsOf(group)
	e.mu.Unlock()

	for _, name := range affected {
		e.event.Fire(engine.NewGroupDataRecalculateEvent(name))
	}
}

// inheritorsOf returns group and all groups inheriting it transitively.
// mu must be held.
func (e *Engine) inheritorsOf(group string) []string {
	seen := map[string]bool{group: true}
	out := []string{group}
	for i := 0; i < len(out); i++ {
		for _, child := range e.inheritors.Get(out[i]) {
			if !seen[child] {
				seen[child] = true
				out = append(out, child)
			}
		}
	}
	return out
}

// setRule replaces the rule with the same permission and contexts or appends it.
func setRule(rules []Rule, rule Rule) []Rule {
	for i, r := range rules {
		if r.Permission == rule.Permission && maps.Equal(r.Contexts, rule.Contexts) {
			rules[i] = rule
			return rules
		}
	}
	return append(rules, rule)
}
