// Package version holds the version of the perms binary.
package version

import "strings"

// version is set using
// -ldflags "-X go.minekube.com/perms/pkg/version.version=v1.2.3"
var version = "unknown"

func String() string {
	return version
}

// UserAgent identifies perms in outgoing requests and logs.
func UserAgent() string {
	s := strings.Builder{}
	s.WriteString("Minekube-Perms/")
	if v := String(); v != "" {
		s.WriteString(v)
	} else {
		s.WriteString("Dirty")
	}
	return s.String()
}
