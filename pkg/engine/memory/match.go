package memory

import "strings"

// specificity returns how specific rule matches perm, 0 if it doesn't.
// An exact match is more specific than any wildcard, and longer
// wildcards like "a.b.*" are more specific than shorter ones like "a.*".
func specificity(rule, perm string) int {
	switch {
	case rule == perm:
		return len(perm) + 2
	case rule == "*":
		return 1
	case strings.HasSuffix(rule, ".*"):
		prefix := rule[:len(rule)-1] // keep the dot
		if strings.HasPrefix(perm, prefix) {
			return len(prefix) + 1
		}
	}
	return 0
}
