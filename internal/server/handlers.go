package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/bridge"
	"github.com/ternarybob/stencil/internal/models"
)

// BridgeHandler serves the command bridge HTTP surface.
type BridgeHandler struct {
	queue     *bridge.Queue
	bootstrap func() (string, error) // renders the executor bootstrap for the bound port
	logger    arbor.ILogger
}

// NewBridgeHandler creates the relay's route handler set.
func NewBridgeHandler(queue *bridge.Queue, bootstrap func() (string, error), logger arbor.ILogger) *BridgeHandler {
	return &BridgeHandler{
		queue:     queue,
		bootstrap: bootstrap,
		logger:    logger,
	}
}

type commandListResponse struct {
	FileKey  string           `json:"fileKey"`
	Commands []models.Command `json:"commands"`
}

// PollCommands serves the executor's poll: pending commands in enqueue
// order, each stamped with a claim lease so overlapping polls cannot
// dispatch the same command twice.
func (h *BridgeHandler) PollCommands(w http.ResponseWriter, r *http.Request) {
	fileKey, commands := h.queue.ClaimPending()
	WriteJSON(w, http.StatusOK, commandListResponse{FileKey: fileKey, Commands: commands})
}

// ListAllCommands is the diagnostic dump: every stored command, any status.
func (h *BridgeHandler) ListAllCommands(w http.ResponseWriter, r *http.Request) {
	fileKey, commands := h.queue.ListAll()
	WriteJSON(w, http.StatusOK, commandListResponse{FileKey: fileKey, Commands: commands})
}

// CompleteCommand records the executor's terminal report for one command.
// Body is {result} or {error}; the presence of a non-null error decides
// failure. Reports against already-terminal commands are acknowledged
// no-ops, never overwrites.
func (h *BridgeHandler) CompleteCommand(w http.ResponseWriter, r *http.Request, id string) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "invalid JSON body",
		})
		return
	}

	var result, errPayload interface{}
	if v, ok := body["error"]; ok && v != nil {
		errPayload = v
	} else {
		result = body["result"]
	}

	switch h.queue.Complete(id, result, errPayload) {
	case bridge.CompleteApplied:
		WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	case bridge.CompleteAlreadyTerminal:
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success":          true,
			"alreadyCompleted": true,
		})
	case bridge.CompleteNotFound:
		WriteJSON(w, http.StatusNotFound, map[string]interface{}{"success": false})
	}
}

// ClearCommands discards the whole queue and its file key context.
func (h *BridgeHandler) ClearCommands(w http.ResponseWriter, r *http.Request) {
	h.queue.Clear()
	WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Health reports reachability plus queue counts. The executor probes this
// before it starts polling.
func (h *BridgeHandler) Health(w http.ResponseWriter, r *http.Request) {
	pending, total := h.queue.Counts()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"pendingCommands": pending,
		"totalCommands":   total,
	})
}

// Plugin serves the generated executor bootstrap source.
func (h *BridgeHandler) Plugin(w http.ResponseWriter, r *http.Request) {
	source, err := h.bootstrap()
	if err != nil {
		h.logger.Error().Err(err).Msg("Bootstrap rendering failed")
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "bootstrap rendering failed"})
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(source))
}

// NotFound is the relay's uniform unmatched-route response.
func (h *BridgeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteNotFound(w)
}

// completeCommandID extracts the id from /commands/{id}/complete paths.
// Returns "" when the path does not match.
func completeCommandID(path string) string {
	rest := strings.TrimPrefix(path, "/commands/")
	if rest == path {
		return ""
	}
	id, found := strings.CutSuffix(rest, "/complete")
	if !found || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
