// Package uuid derives the identities of player profiles.
package uuid

import (
	"crypto/md5"
	"encoding/hex"

	guuid "github.com/google/uuid"
)

// Offline returns the identity of an offline mode profile,
// the version 3 UUID of the MD5 hash of "OfflinePlayer:<username>".
// Names are case-sensitive.
func Offline(username string) guuid.UUID {
	const version = 3
	id := guuid.UUID(md5.Sum([]byte("OfflinePlayer:" + username)))
	id[6] = (id[6] & 0x0f) | uint8((version&0xf)<<4)
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant
	return id
}

// Undashed returns the undashed form of id as sent by the session servers.
func Undashed(id guuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// Resolve parses s in any form uuid.Parse accepts. Anything else is taken
// as a player name and resolved to its offline identity.
func Resolve(s string) (id guuid.UUID, offline bool) {
	if id, err := guuid.Parse(s); err == nil {
		return id, false
	}
	return Offline(s), true
}
