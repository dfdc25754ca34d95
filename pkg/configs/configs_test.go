package configs

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"go.minekube.com/perms/pkg/engine/memory"
	"go.minekube.com/perms/pkg/perms/config"
)

func TestDefaultConfigBytes(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(DefaultConfigBytes)))

	var c config.Config
	require.NoError(t, v.Unmarshal(&c))
	d := config.DefaultConfig
	require.Equal(t, d.TickRate, c.TickRate)
	require.Equal(t, d.AsyncWorkers, c.AsyncWorkers)
	require.Equal(t, d.Negotiation, c.Negotiation)
	require.Equal(t, d.Notifier, c.Notifier)
	require.Equal(t, d.Commands, c.Commands)
	require.Equal(t, d.Telemetry, c.Telemetry)
	require.Equal(t, d.OpsEnabled, c.OpsEnabled)
	require.Equal(t, d.WatchRules, c.WatchRules)
	require.Empty(t, c.Contexts.Disabled)

	_, errs := c.Validate()
	require.Empty(t, errs)
}

func TestRulesBytes(t *testing.T) {
	doc, err := memory.Decode(bytes.NewReader(RulesBytes))
	require.NoError(t, err)
	require.Len(t, doc.Groups, 3)
	require.Len(t, doc.Users, 2)
}
