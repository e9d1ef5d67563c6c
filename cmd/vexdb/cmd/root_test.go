package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	// When: executing with --help
	err := cmd.Execute()

	// Then: it should show usage information
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "vexdb", "Help should contain program name")
	assert.Contains(t, output, "serve", "Help should list the serve command")
	assert.Contains(t, output, "version", "Help should list the version command")
}

func TestRootCmd_HasServeSubcommand(t *testing.T) {
	// Given: the root command
	rootCmd := NewRootCmd()

	// When: looking for the serve subcommand
	serveCmd, _, err := rootCmd.Find([]string{"serve"})

	// Then: the serve command should exist with its flags
	require.NoError(t, err)
	assert.Equal(t, "serve", serveCmd.Name())
	assert.NotNil(t, serveCmd.Flags().Lookup("addr"))
	assert.NotNil(t, serveCmd.Flags().Lookup("data-dir"))
}

func TestRootCmd_UnknownCommandRejected(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"bogus"})

	// When: executing with an unknown subcommand
	err := cmd.Execute()

	// Then: it should fail rather than start the server
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "bogus"`)
}
