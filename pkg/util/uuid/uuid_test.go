package uuid

import (
	"testing"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOffline(t *testing.T) {
	id := Offline("bob")
	require.Equal(t, id, Offline("bob"))
	require.NotEqual(t, id, Offline("Bob"))
	require.Equal(t, guuid.Version(3), id.Version())
	require.Equal(t, guuid.RFC4122, id.Variant())
}

func TestResolve(t *testing.T) {
	const jeb = "069a79f4-44e9-4726-a5be-fca90e38aaf5"
	for _, s := range []string{jeb, "069a79f444e94726a5befca90e38aaf5"} {
		id, offline := Resolve(s)
		require.False(t, offline)
		require.Equal(t, jeb, id.String())
		require.Equal(t, "069a79f444e94726a5befca90e38aaf5", Undashed(id))
	}

	id, offline := Resolve("Notch")
	require.True(t, offline)
	require.Equal(t, Offline("Notch"), id)
}
