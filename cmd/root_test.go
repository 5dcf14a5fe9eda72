package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"migrate", "scan", "runs", "review", "merge", "alias", "audit", "serve", "config"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "catalog-dedupe", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScanCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"tenant", "min-confidence", "max-products"} {
		flag := scanCmd.Flags().Lookup(flagName)
		require.NotNil(t, flag, "scan should have --%s flag", flagName)
	}
}

func TestReviewCommand_HasSubcommands(t *testing.T) {
	cmds := reviewCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["decide"])
}

func TestReviewDecideCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"action", "keep", "merge", "reviewer"} {
		flag := reviewDecideCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "review decide should have --%s flag", flagName)
	}
}

func TestAliasCommand_HasSubcommands(t *testing.T) {
	cmds := aliasCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}
	assert.True(t, names["resolve"])
	assert.True(t, names["list"])
}

func TestMergeCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"tenant", "keep", "merge", "operator", "reason"} {
		flag := mergeCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "merge should have --%s flag", flagName)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRunsCommand_Flags(t *testing.T) {
	flag := runsCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "20", flag.DefValue)
}
