package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "orderingest", root.Use)
	assert.Contains(t, root.Long, "fingerprinted by content")

	for _, name := range []string{"run", "scan", "fingerprint", "history"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCommand_Defaults(t *testing.T) {
	flags := NewRootCommand().PersistentFlags()

	tests := []struct {
		flag, shorthand, def string
	}{
		{"verbose", "v", "false"},
		{"format", "", "text"},
		{"config", "", "config/orderingest.yaml"},
	}
	for _, tt := range tests {
		f := flags.Lookup(tt.flag)
		require.NotNil(t, f, tt.flag)
		assert.Equal(t, tt.shorthand, f.Shorthand, tt.flag)
		assert.Equal(t, tt.def, f.DefValue, tt.flag)
	}
}

func TestPathOverrides(t *testing.T) {
	root := NewRootCommand()
	overrides := []string{"inbound", "archive", "out", "shops", "ledger", "workers"}

	for _, cmd := range []string{"run", "scan"} {
		sub, _, err := root.Find([]string{cmd})
		require.NoError(t, err)
		for _, name := range overrides {
			assert.NotNil(t, sub.Flags().Lookup(name), "%s --%s", cmd, name)
		}
	}
}

func TestRootCommand_RejectsFormat(t *testing.T) {
	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"--format", "xml", "scan"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
