package telemetry

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"go.minekube.com/perms/pkg/perms/config"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(config.Telemetry{}, logr.Discard())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}
