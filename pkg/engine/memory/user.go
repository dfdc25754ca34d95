package memory

import (
	"strings"

	"github.com/google/uuid"

	"go.minekube.com/perms/pkg/engine"
	"go.minekube.com/perms/pkg/query"
	"go.minekube.com/perms/pkg/util/permission"
)

type user struct {
	e        *Engine
	id       uuid.UUID
	username string
}

var _ engine.User = (*user)(nil)

func (u *user) ID() uuid.UUID    { return u.id }
func (u *user) Username() string { return u.username }

// matches reports whether the Document key refers to u.
func (u *user) matches(key string) bool {
	return key == u.id.String() || strings.EqualFold(key, u.username)
}

// data returns the Document entry of u. e.mu must be held.
func (u *user) data() *UserData {
	if d, ok := u.e.doc.Users[u.id.String()]; ok {
		return d
	}
	if d, ok := u.e.doc.Users[strings.ToLower(u.username)]; ok {
		return d
	}
	return &UserData{}
}

// CheckPermission resolves perm from the user's own rules and then the
// rules of inherited groups, nearest first. The most specific matching
// rule wins, ties go to the nearer holder.
func (u *user) CheckPermission(opts *query.QueryOptions, perm string) permission.TriState {
	perm = strings.ToLower(perm)
	u.e.mu.RLock()
	defer u.e.mu.RUnlock()

	best, result := 0, permission.Undefined
	consider := func(rules []Rule) {
		for i := range rules {
			r := &rules[i]
			s := specificity(r.Permission, perm)
			if s <= best || !applies(opts, r.Contexts) {
				continue
			}
			best, result = s, permission.FromBool(r.Allowed())
		}
	}
	consider(u.data().Permissions)
	for _, g := range u.groups(opts) {
		consider(u.e.doc.Groups[g].Permissions)
	}
	return result
}

// InheritsGroup implements engine.User.
func (u *user) InheritsGroup(opts *query.QueryOptions, group string) bool {
	group = strings.ToLower(group)
	u.e.mu.RLock()
	defer u.e.mu.RUnlock()
	for _, g := range u.groups(opts) {
		if g == group {
			return true
		}
	}
	return false
}

// groups returns the existing groups u inherits under opts in
// breadth-first order. e.mu must be held.
func (u *user) groups(opts *query.QueryOptions) []string {
	refs := append([]GroupRef(nil), u.data().Groups...)
	refs = append(refs, GroupRef{Name: u.e.doc.DefaultGroup})

	var out []string
	seen := map[string]bool{}
	for len(refs) != 0 {
		ref := refs[0]
		refs = refs[1:]
		g, ok := u.e.doc.Groups[ref.Name]
		if !ok || seen[ref.Name] || !applies(opts, ref.Contexts) {
			continue
		}
		seen[ref.Name] = true
		out = append(out, ref.Name)
		refs = append(refs, g.Inherits...)
	}
	return out
}

func applies(opts *query.QueryOptions, contexts map[string]string) bool {
	for k, v := range contexts {
		if !opts.Has(k, v) {
			return false
		}
	}
	return true
}
