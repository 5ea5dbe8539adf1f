package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestRootCommandWiresSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
}

func TestServeRejectsArgs(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"serve", "extra"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func TestServeGraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(serveOptions(""), fx.NopLogger))
}

func TestMigrateGraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(migrateOptions(""), fx.NopLogger))
}
