package plugin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBootstrap(t *testing.T) {
	source, err := RenderBootstrap(BootstrapParams{
		BridgeURL:    "http://localhost:3847",
		PollInterval: 1 * time.Second,
		GraceDelay:   5 * time.Second,
	})
	require.NoError(t, err)

	assert.Contains(t, source, `const BRIDGE_URL = "http://localhost:3847";`)
	assert.Contains(t, source, "const POLL_INTERVAL_MS = 1000;")
	assert.Contains(t, source, "const GRACE_DELAY_MS = 5000;")

	// The generated executor carries the full contract: probe, sequential
	// polling, in-flight dedup and completion reporting.
	assert.Contains(t, source, `"/health"`)
	assert.Contains(t, source, `"/commands"`)
	assert.Contains(t, source, "/complete")
	assert.Contains(t, source, "executing.has(command.id)")
	assert.Contains(t, source, "HANDLERS[command.type]")
	assert.Contains(t, source, "Unknown command type:")
}

func TestRenderBootstrapAppliesTimingDefaults(t *testing.T) {
	source, err := RenderBootstrap(BootstrapParams{BridgeURL: "http://localhost:3847"})
	require.NoError(t, err)

	assert.Contains(t, source, "const POLL_INTERVAL_MS = 1000;")
	assert.Contains(t, source, "const GRACE_DELAY_MS = 5000;")
}
