package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The command tree references runAsDaemon, which resolves the package-level
// App at run time rather than at package init. Building the app and then
// wiring the daemon from it mirrors what main does.
func TestInitApp(t *testing.T) {
	app := initApp()
	require.NotNil(t, app.cliCmd)

	var names []string
	for _, cmd := range app.cliCmd.Commands {
		names = append(names, cmd.Name)
	}
	assert.Contains(t, names, "daemon")
	assert.Contains(t, names, "router")
	assert.Contains(t, names, "pass")
	assert.Contains(t, names, "asset")

	App = app
	d := newDaemon()
	assert.Same(t, app.logger, d.logger)
}
