package plugin

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// BootstrapParams parameterize the generated executor bootstrap.
type BootstrapParams struct {
	BridgeURL    string
	PollInterval time.Duration
	GraceDelay   time.Duration
}

// The bootstrap is the executor skeleton that runs inside the design tool's
// plugin sandbox: health probe on connect, sequential polling, the in-flight
// set with grace eviction, and completion reporting. The plugin supplies the
// HANDLERS table mapping command types onto document mutations.
const bootstrapTemplate = `// Stencil executor bootstrap (generated by the bridge relay).
// Load inside the design tool plugin; define HANDLERS before connecting.
const BRIDGE_URL = "{{.BridgeURL}}";
const POLL_INTERVAL_MS = {{.PollIntervalMS}};
const GRACE_DELAY_MS = {{.GraceDelayMS}};

const executing = new Set();
let timer = null;
let connected = false;

async function connect() {
  const res = await fetch(BRIDGE_URL + "/health");
  if (!res.ok) throw new Error("bridge unreachable at " + BRIDGE_URL);
  executing.clear();
  connected = true;
  schedule();
}

function disconnect() {
  connected = false;
  if (timer) clearTimeout(timer);
  timer = null;
  executing.clear();
}

function schedule() {
  if (!connected) return;
  timer = setTimeout(poll, POLL_INTERVAL_MS);
}

async function poll() {
  try {
    const res = await fetch(BRIDGE_URL + "/commands");
    const body = await res.json();
    for (const command of body.commands) {
      if (executing.has(command.id)) continue;
      executing.add(command.id);
      await execute(command);
      setTimeout(() => executing.delete(command.id), GRACE_DELAY_MS);
    }
  } catch (err) {
    // Bridge briefly unreachable; retry on the next tick.
  }
  schedule();
}

async function execute(command) {
  let payload;
  try {
    const handler = HANDLERS[command.type];
    if (!handler) throw new Error("Unknown command type: " + command.type);
    payload = { result: await handler(command.params) };
  } catch (err) {
    payload = { error: { message: String(err && err.message ? err.message : err) } };
  }
  try {
    await fetch(BRIDGE_URL + "/commands/" + command.id + "/complete", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(payload),
    });
  } catch (err) {
    // Report lost; the bridge lease expiry re-serves the command.
  }
}
`

var bootstrap = template.Must(template.New("bootstrap").Parse(bootstrapTemplate))

// RenderBootstrap renders the executor bootstrap source for a relay instance.
func RenderBootstrap(params BootstrapParams) (string, error) {
	if params.PollInterval <= 0 {
		params.PollInterval = time.Second
	}
	if params.GraceDelay <= 0 {
		params.GraceDelay = 5 * time.Second
	}

	data := struct {
		BridgeURL      string
		PollIntervalMS int64
		GraceDelayMS   int64
	}{
		BridgeURL:      params.BridgeURL,
		PollIntervalMS: params.PollInterval.Milliseconds(),
		GraceDelayMS:   params.GraceDelay.Milliseconds(),
	}

	var buf bytes.Buffer
	if err := bootstrap.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render bootstrap: %w", err)
	}
	return buf.String(), nil
}
