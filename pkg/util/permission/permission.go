// The permission utility package defines the primitives shared by every
// permission check in perms: the three-state result of a lookup and the
// Subject that can be asked for one.
//
// A lookup never answers with a plain bool. Undefined means that no rule
// applied, and callers are expected to fall through to whatever the host
// would have decided on its own.
package permission

// Func is the permission function to obtain the TriState for a permission.
type Func func(permission string) TriState

// Subject is a permission holder like a player or the console.
type Subject interface {
	HasPermission(permission string) bool // Equal to PermissionValue(...).Bool()
	PermissionValue(permission string) TriState
}

// TriState can be in three states (True, False, Undefined).
type TriState uint8

const (
	Undefined TriState = iota // No rule applied.
	True                      // A permission is allowed.
	False                     // A permission is explicitly denied.
)

// Bool returns the bool value of a TriState where
// Undefined is converted to false.
func (t TriState) Bool() bool {
	return t == True
}

// Defined reports whether t is either True or False.
func (t TriState) Defined() bool {
	return t != Undefined
}

// String implements fmt.Stringer.
func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "undefined"
	}
}

// FromBool converts b into True or False.
func FromBool(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Parse parses "true", "false" and "undefined" (or empty).
// Anything else is reported with ok=false.
func Parse(s string) (t TriState, ok bool) {
	switch s {
	case "true":
		return True, true
	case "false":
		return False, true
	case "", "undefined":
		return Undefined, true
	}
	return Undefined, false
}

// UndefinedFunc returns a Func that answers Undefined for every permission.
// It is the default for subjects without any permission data.
func UndefinedFunc() Func {
	return func(string) TriState { return Undefined }
}
