package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/models"
)

// Handler executes one command type against the live document and returns
// the command's result payload.
type Handler func(params map[string]interface{}) (interface{}, error)

// Notice is an operator-facing notification about one finished command.
type Notice struct {
	CommandID string
	Type      models.CommandType
	Success   bool
	Message   string
}

// Config tunes an executor instance.
type Config struct {
	// BaseURL is the relay root, e.g. "http://localhost:3847".
	BaseURL string
	// PollInterval is the pause between the end of one poll+execute cycle
	// and the start of the next.
	PollInterval time.Duration
	// GraceDelay is how long a reported command id stays in the in-flight
	// set, absorbing a slow relay that re-serves the command once more.
	GraceDelay time.Duration
	// Notify, when set, receives a notice per command completion/failure.
	Notify func(Notice)
}

// Executor polls the relay for pending commands, executes each against its
// handler table, and reports outcomes. The in-flight set guarantees a
// command id polled twice is dispatched at most once.
type Executor struct {
	baseURL      string
	client       *http.Client
	handlers     map[models.CommandType]Handler
	logger       arbor.ILogger
	pollInterval time.Duration
	graceDelay   time.Duration
	notify       func(Notice)

	mu        sync.Mutex
	inflight  map[string]struct{}
	connected bool
	cancel    context.CancelFunc
}

// New creates an executor bound to a relay and a handler table.
func New(cfg Config, handlers map[models.CommandType]Handler, logger arbor.ILogger) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.GraceDelay <= 0 {
		cfg.GraceDelay = 5 * time.Second
	}
	return &Executor{
		baseURL:      cfg.BaseURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		handlers:     handlers,
		logger:       logger,
		pollInterval: cfg.PollInterval,
		graceDelay:   cfg.GraceDelay,
		notify:       cfg.Notify,
		inflight:     make(map[string]struct{}),
	}
}

// Connect probes the relay's health endpoint and, only on success, clears
// stale in-flight tracking and starts the poll loop. A failed probe is
// surfaced to the caller; polling never starts.
func (e *Executor) Connect(ctx context.Context) error {
	if err := e.probe(ctx); err != nil {
		return fmt.Errorf("bridge unreachable at %s: %w", e.baseURL, err)
	}

	e.mu.Lock()
	if e.connected {
		e.mu.Unlock()
		return nil
	}
	e.inflight = make(map[string]struct{})
	e.connected = true
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	e.logger.Info().Str("bridge", e.baseURL).Msg("Executor connected, polling started")
	go e.run(runCtx)
	return nil
}

// Disconnect halts the poll loop immediately and clears in-flight tracking.
func (e *Executor) Disconnect() {
	e.mu.Lock()
	if !e.connected {
		e.mu.Unlock()
		return
	}
	e.connected = false
	cancel := e.cancel
	e.cancel = nil
	e.inflight = make(map[string]struct{})
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.logger.Info().Msg("Executor disconnected, polling stopped")
}

// Connected reports the persistent connection indicator state.
func (e *Executor) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

func (e *Executor) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe returned %d", resp.StatusCode)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("health probe returned malformed body: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("health probe returned status %q", health.Status)
	}
	return nil
}

// run is the sequential poll loop: one full poll+execute cycle finishes
// before the next interval starts. Polls never overlap.
func (e *Executor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.pollInterval):
		}
		e.pollOnce(ctx)
	}
}

type pollResponse struct {
	FileKey  string           `json:"fileKey"`
	Commands []models.Command `json:"commands"`
}

// pollOnce fetches pending commands and executes them in order. Transient
// relay failures are swallowed; the next tick retries.
func (e *Executor) pollOnce(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/commands", nil)
	if err != nil {
		return
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug().Err(err).Msg("Poll failed, retrying next tick")
		return
	}
	defer resp.Body.Close()

	var poll pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&poll); err != nil {
		e.logger.Debug().Err(err).Msg("Poll response malformed, retrying next tick")
		return
	}

	for i := range poll.Commands {
		cmd := poll.Commands[i]
		if !e.markInflight(cmd.ID) {
			continue
		}
		result, errPayload := e.execute(cmd)
		e.report(ctx, cmd, result, errPayload)
		e.forgetAfterGrace(cmd.ID)
	}
}

// markInflight records a dispatch claim. Returns false if the command is
// already executing or within its post-report grace window.
func (e *Executor) markInflight(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.inflight[id]; exists {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

// forgetAfterGrace evicts the id from the in-flight set once the relay has
// had time to register the completion report.
func (e *Executor) forgetAfterGrace(id string) {
	time.AfterFunc(e.graceDelay, func() {
		e.mu.Lock()
		delete(e.inflight, id)
		e.mu.Unlock()
	})
}

// execute dispatches one command. Every failure, including a panicking
// handler, becomes an error payload; nothing escapes to crash the loop.
func (e *Executor) execute(cmd models.Command) (result interface{}, errPayload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			errPayload = map[string]interface{}{"message": fmt.Sprintf("handler panicked: %v", r)}
		}
	}()

	if cmd.Type == models.CommandBatch {
		return e.executeBatch(cmd.Params)
	}

	handler, ok := e.handlers[cmd.Type]
	if !ok {
		return nil, map[string]interface{}{"message": fmt.Sprintf("Unknown command type: %s", cmd.Type)}
	}

	out, err := handler(cmd.Params)
	if err != nil {
		return nil, map[string]interface{}{"message": err.Error()}
	}
	return out, nil
}

// executeBatch runs each sub-command against the same handler table. A
// failing sub-command is recorded and the rest still run. Any failure flips
// the batch itself to failed, with per-sub-command outcomes in the error
// payload; an all-success batch completes with the outcomes as its result.
func (e *Executor) executeBatch(params map[string]interface{}) (interface{}, interface{}) {
	raw, ok := params["commands"].([]interface{})
	if !ok {
		return nil, map[string]interface{}{"message": "batch params must contain a commands array"}
	}

	outcomes := make([]models.BatchOutcome, 0, len(raw))
	failed := 0
	for _, item := range raw {
		sub, ok := item.(map[string]interface{})
		if !ok {
			outcomes = append(outcomes, models.BatchOutcome{Success: false, Error: "sub-command must be an object"})
			failed++
			continue
		}
		subType, _ := sub["type"].(string)
		subParams, _ := sub["params"].(map[string]interface{})

		outcome := e.executeSub(models.CommandType(subType), subParams)
		if !outcome.Success {
			failed++
		}
		outcomes = append(outcomes, outcome)
	}

	if failed > 0 {
		return nil, models.BatchError{
			Message: fmt.Sprintf("%d of %d sub-commands failed", failed, len(outcomes)),
			Results: outcomes,
		}
	}
	return outcomes, nil
}

func (e *Executor) executeSub(subType models.CommandType, params map[string]interface{}) (outcome models.BatchOutcome) {
	outcome.Type = subType
	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Result = nil
			outcome.Error = fmt.Sprintf("handler panicked: %v", r)
		}
	}()

	handler, ok := e.handlers[subType]
	if !ok {
		outcome.Error = fmt.Sprintf("Unknown command type: %s", subType)
		return outcome
	}

	result, err := handler(params)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Success = true
	outcome.Result = result
	return outcome
}

// report posts the terminal outcome back to the relay. A failed report is
// logged and dropped; the relay's lease expiry will re-serve the command.
func (e *Executor) report(ctx context.Context, cmd models.Command, result, errPayload interface{}) {
	body := make(map[string]interface{}, 1)
	if errPayload != nil {
		body["error"] = errPayload
	} else {
		body["result"] = result
	}

	payload, err := json.Marshal(body)
	if err != nil {
		e.logger.Warn().Err(err).Str("command_id", cmd.ID).Msg("Completion payload not serializable")
		return
	}

	url := fmt.Sprintf("%s/commands/%s/complete", e.baseURL, cmd.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug().Err(err).Str("command_id", cmd.ID).Msg("Completion report failed")
		return
	}
	resp.Body.Close()

	if e.notify != nil {
		notice := Notice{CommandID: cmd.ID, Type: cmd.Type, Success: errPayload == nil}
		if errPayload != nil {
			if m, ok := errPayload.(map[string]interface{}); ok {
				notice.Message, _ = m["message"].(string)
			} else if be, ok := errPayload.(models.BatchError); ok {
				notice.Message = be.Message
			}
		}
		e.notify(notice)
	}
}
