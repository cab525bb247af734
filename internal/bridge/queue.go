package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/interfaces"
	"github.com/ternarybob/stencil/internal/models"
)

// CompleteOutcome is the result of a completion report against the queue.
type CompleteOutcome int

const (
	// CompleteApplied means the terminal transition was recorded.
	CompleteApplied CompleteOutcome = iota
	// CompleteAlreadyTerminal means the command already finished; the report
	// was a no-op. A late or duplicate report never overwrites the first
	// result.
	CompleteAlreadyTerminal
	// CompleteNotFound means no command with that id exists.
	CompleteNotFound
)

// Options tune a queue instance.
type Options struct {
	// LeaseDuration is how long a command served to the executor stays
	// invisible to subsequent polls. Zero disables server-side claims.
	LeaseDuration time.Duration
	// MaxCommands caps total stored commands; oldest terminal entries are
	// evicted first. Zero means uncapped.
	MaxCommands int
	// MaxAge evicts terminal commands older than this on sweep. Zero means
	// no age-based eviction.
	MaxAge time.Duration
}

// Queue holds the ordered sequence of commands with lifecycle status. It is
// owned by the composition root and passed explicitly to the relay handlers;
// tests run as many independent instances as they like.
type Queue struct {
	mu      sync.Mutex
	order   []*models.Command
	byID    map[string]*models.Command
	leases  map[string]time.Time // command id -> lease expiry
	fileKey string

	opts   Options
	events interfaces.EventService
	logger arbor.ILogger
	now    func() time.Time
}

// NewQueue creates an empty command queue.
func NewQueue(opts Options, events interfaces.EventService, logger arbor.ILogger) *Queue {
	return &Queue{
		byID:   make(map[string]*models.Command),
		leases: make(map[string]time.Time),
		opts:   opts,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Enqueue validates the spec, assigns an id and appends the command in
// pending state. It never blocks; the only failure mode is a malformed spec.
func (q *Queue) Enqueue(spec models.CommandSpec) (models.Command, error) {
	if err := spec.Validate(); err != nil {
		return models.Command{}, err
	}

	cmd := &models.Command{
		ID:        common.NewCommandID(),
		Type:      spec.Type,
		Params:    spec.Params,
		Status:    models.StatusPending,
		CreatedAt: q.now().UnixMilli(),
	}

	q.mu.Lock()
	q.order = append(q.order, cmd)
	q.byID[cmd.ID] = cmd
	snapshot := *cmd
	q.mu.Unlock()

	q.logger.Debug().
		Str("command_id", cmd.ID).
		Str("type", string(cmd.Type)).
		Msg("Command enqueued")

	q.publish(interfaces.EventCommandEnqueued, snapshot)
	return snapshot, nil
}

// EnqueueBatch records fileKey as the queue-wide context, then enqueues each
// spec in order. The batch occupies a contiguous run of the stored sequence.
func (q *Queue) EnqueueBatch(fileKey string, specs []models.CommandSpec) ([]models.Command, error) {
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return nil, err
		}
	}

	q.mu.Lock()
	q.fileKey = fileKey
	q.mu.Unlock()

	commands := make([]models.Command, 0, len(specs))
	for _, spec := range specs {
		cmd, err := q.Enqueue(spec)
		if err != nil {
			return commands, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// ListPending returns all pending commands in enqueue order, regardless of
// any outstanding lease. This is the producer-side visibility view.
func (q *Queue) ListPending() []models.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := make([]models.Command, 0)
	for _, cmd := range q.order {
		if cmd.Status == models.StatusPending {
			pending = append(pending, *cmd)
		}
	}
	return pending
}

// ClaimPending returns the pending commands the executor should run and
// stamps a lease on each. A command already under an unexpired lease is
// withheld so overlapping or duplicate polls cannot dispatch it twice on the
// server side. Expired leases put the command back in rotation.
func (q *Queue) ClaimPending() (string, []models.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	claimed := make([]models.Command, 0)
	for _, cmd := range q.order {
		if cmd.Status != models.StatusPending {
			continue
		}
		if q.opts.LeaseDuration > 0 {
			if expiry, ok := q.leases[cmd.ID]; ok && now.Before(expiry) {
				continue
			}
			q.leases[cmd.ID] = now.Add(q.opts.LeaseDuration)
		}
		claimed = append(claimed, *cmd)
	}
	return q.fileKey, claimed
}

// ListAll returns the file key context and every stored command in enqueue
// order. Diagnostic view; includes terminal commands not yet swept.
func (q *Queue) ListAll() (string, []models.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()

	all := make([]models.Command, 0, len(q.order))
	for _, cmd := range q.order {
		all = append(all, *cmd)
	}
	return q.fileKey, all
}

// Get returns a single command by id.
func (q *Queue) Get(id string) (models.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cmd, ok := q.byID[id]
	if !ok {
		return models.Command{}, false
	}
	return *cmd, true
}

// Complete records a terminal transition. The presence of errPayload decides
// failed vs completed. A report against an already-terminal command is a
// no-op so a duplicate or late report can never clobber the first result.
func (q *Queue) Complete(id string, result, errPayload interface{}) CompleteOutcome {
	q.mu.Lock()
	cmd, ok := q.byID[id]
	if !ok {
		q.mu.Unlock()
		return CompleteNotFound
	}
	if cmd.Status.IsTerminal() {
		q.mu.Unlock()
		q.logger.Debug().
			Str("command_id", id).
			Str("status", string(cmd.Status)).
			Msg("Duplicate completion report ignored")
		return CompleteAlreadyTerminal
	}

	if errPayload != nil {
		cmd.Status = models.StatusFailed
		cmd.Error = errPayload
	} else {
		cmd.Status = models.StatusCompleted
		cmd.Result = result
	}
	cmd.CompletedAt = q.now().UnixMilli()
	delete(q.leases, id)
	snapshot := *cmd
	q.mu.Unlock()

	eventType := interfaces.EventCommandCompleted
	if snapshot.Status == models.StatusFailed {
		eventType = interfaces.EventCommandFailed
	}

	q.logger.Debug().
		Str("command_id", id).
		Str("status", string(snapshot.Status)).
		Msg("Command finished")

	q.publish(eventType, snapshot)
	return CompleteApplied
}

// Clear discards all commands and resets the file key context. Irrecoverable.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.order = nil
	q.byID = make(map[string]*models.Command)
	q.leases = make(map[string]time.Time)
	q.fileKey = ""
	q.mu.Unlock()

	q.logger.Info().Msg("Command queue cleared")
	q.publish(interfaces.EventQueueCleared, nil)
}

// Counts returns the pending and total command counts.
func (q *Queue) Counts() (pending, total int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, cmd := range q.order {
		if cmd.Status == models.StatusPending {
			pending++
		}
	}
	return pending, len(q.order)
}

// FileKey returns the current batch file key context.
func (q *Queue) FileKey() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fileKey
}

// Sweep evicts terminal commands per the retention options: anything older
// than MaxAge goes, then oldest terminal entries go until the total is back
// under MaxCommands. Pending commands are never evicted. Returns the number
// of commands removed.
func (q *Queue) Sweep(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := 0
	if q.opts.MaxAge > 0 {
		cutoff := now.Add(-q.opts.MaxAge).UnixMilli()
		kept := q.order[:0]
		for _, cmd := range q.order {
			if cmd.Status.IsTerminal() && cmd.CompletedAt > 0 && cmd.CompletedAt < cutoff {
				delete(q.byID, cmd.ID)
				evicted++
				continue
			}
			kept = append(kept, cmd)
		}
		q.order = kept
	}

	if q.opts.MaxCommands > 0 && len(q.order) > q.opts.MaxCommands {
		overflow := len(q.order) - q.opts.MaxCommands
		kept := q.order[:0]
		for _, cmd := range q.order {
			if overflow > 0 && cmd.Status.IsTerminal() {
				delete(q.byID, cmd.ID)
				overflow--
				evicted++
				continue
			}
			kept = append(kept, cmd)
		}
		q.order = kept
	}

	if evicted > 0 {
		q.logger.Debug().Int("evicted", evicted).Msg("Retention sweep removed terminal commands")
	}
	return evicted
}

// SetClock replaces the queue's time source. Test hook.
func (q *Queue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

func (q *Queue) publish(eventType interfaces.EventType, payload interface{}) {
	if q.events == nil {
		return
	}
	q.events.Publish(context.Background(), interfaces.Event{
		Type:    eventType,
		Payload: payload,
	})
}
