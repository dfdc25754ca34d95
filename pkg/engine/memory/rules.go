package memory

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultGroup is inherited by every user.
const DefaultGroup = "default"

// Document is the YAML rules file of the memory engine.
//
//	defaultGroup: default
//	groups:
//	  default:
//	    permissions: [command.list]
//	  admin:
//	    inherits: [default]
//	    permissions:
//	      - command.*
//	      - -command.op
//	      - permission: perms.autoop
//	        contexts: {world: lobby}
//	users:
//	  Notch:
//	    groups: [admin]
//
// Users are keyed by their UUID or, case-insensitively, by name.
type Document struct {
	DefaultGroup string               `yaml:"defaultGroup,omitempty"`
	Groups       map[string]*Group    `yaml:"groups,omitempty"`
	Users        map[string]*UserData `yaml:"users,omitempty"`
}

// Group holds the rules of a group.
type Group struct {
	Inherits    []GroupRef `yaml:"inherits,omitempty"`
	Permissions []Rule     `yaml:"permissions,omitempty"`
}

// UserData holds the rules of a user.
type UserData struct {
	Groups      []GroupRef `yaml:"groups,omitempty"`
	Permissions []Rule     `yaml:"permissions,omitempty"`
}

// Rule sets a permission to a value in the given contexts.
// In YAML it can be written as a plain string where a leading "-" negates.
type Rule struct {
	Permission string            `yaml:"permission"`
	Value      *bool             `yaml:"value,omitempty"` // defaults to true
	Contexts   map[string]string `yaml:"contexts,omitempty"`
}

// GroupRef references a group to inherit in the given contexts.
// In YAML it can be written as the plain group name.
type GroupRef struct {
	Name     string            `yaml:"name"`
	Contexts map[string]string `yaml:"contexts,omitempty"`
}

// Decode reads a Document from r.
func Decode(r io.Reader) (*Document, error) {
	doc := new(Document)
	if err := yaml.NewDecoder(r).Decode(doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("error decoding rules: %w", err)
	}
	doc.normalize()
	return doc, nil
}

func (d *Document) normalize() {
	if d.DefaultGroup == "" {
		d.DefaultGroup = DefaultGroup
	}
	d.DefaultGroup = strings.ToLower(d.DefaultGroup)
	groups := make(map[string]*Group, len(d.Groups))
	for name, g := range d.Groups {
		if g == nil {
			g = new(Group)
		}
		normalizeRefs(g.Inherits)
		normalizeRules(g.Permissions)
		groups[strings.ToLower(name)] = g
	}
	d.Groups = groups
	users := make(map[string]*UserData, len(d.Users))
	for key, u := range d.Users {
		if u == nil {
			u = new(UserData)
		}
		normalizeRefs(u.Groups)
		normalizeRules(u.Permissions)
		users[strings.ToLower(key)] = u
	}
	d.Users = users
}

func normalizeRefs(refs []GroupRef) {
	for i := range refs {
		refs[i].Name = strings.ToLower(strings.TrimSpace(refs[i].Name))
	}
}

func normalizeRules(rules []Rule) {
	for i := range rules {
		rules[i].Permission = strings.ToLower(strings.TrimSpace(rules[i].Permission))
	}
}

// Allowed returns the value of the rule.
func (r *Rule) Allowed() bool { return r.Value == nil || *r.Value }

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s := strings.TrimSpace(value.Value)
		if s == "" {
			return fmt.Errorf("line %d: empty permission", value.Line)
		}
		allowed := !strings.HasPrefix(s, "-")
		*r = Rule{Permission: strings.TrimPrefix(s, "-"), Value: &allowed}
		return nil
	}
	type plain Rule
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	if strings.TrimSpace(r.Permission) == "" {
		return fmt.Errorf("line %d: rule without permission", value.Line)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (g *GroupRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*g = GroupRef{Name: value.Value}
		return nil
	}
	type plain GroupRef
	return value.Decode((*plain)(g))
}
