package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CommandType identifies the executor handler that runs a command. The
// enumeration is the executor's dispatch key - the plugin's handler table is
// keyed by these exact strings.
type CommandType string

const (
	CommandCreatePage      CommandType = "create_page"
	CommandRenamePage      CommandType = "rename_page"
	CommandDeletePage      CommandType = "delete_page"
	CommandMoveNode        CommandType = "move_node"
	CommandRenameNode      CommandType = "rename_node"
	CommandDeleteNode      CommandType = "delete_node"
	CommandCreateFrame     CommandType = "create_frame"
	CommandCreateComponent CommandType = "create_component"
	CommandCreateStyle     CommandType = "create_style"
	CommandGroupNodes      CommandType = "group_nodes"
	CommandUngroupNode     CommandType = "ungroup_node"
	CommandSetProperty     CommandType = "set_property"
	CommandBatch           CommandType = "batch"
)

// CommandTypes lists every valid command type in dispatch-table order.
func CommandTypes() []CommandType {
	return []CommandType{
		CommandCreatePage, CommandRenamePage, CommandDeletePage,
		CommandMoveNode, CommandRenameNode, CommandDeleteNode,
		CommandCreateFrame, CommandCreateComponent, CommandCreateStyle,
		CommandGroupNodes, CommandUngroupNode, CommandSetProperty,
		CommandBatch,
	}
}

// CommandStatus is the relay-side lifecycle state of a command. The executor
// keeps its own in-flight tracking; the relay only persists pending and the
// two terminal states.
type CommandStatus string

const (
	StatusPending   CommandStatus = "pending"
	StatusCompleted CommandStatus = "completed"
	StatusFailed    CommandStatus = "failed"
)

// IsTerminal reports whether the status is completed or failed.
func (s CommandStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CommandSpec is what a producer submits: a type plus an opaque parameter
// payload whose shape depends on the type. The bridge never interprets Params.
type CommandSpec struct {
	Type   CommandType            `json:"type" validate:"required,oneof=create_page rename_page delete_page move_node rename_node delete_node create_frame create_component create_style group_nodes ungroup_node set_property batch"`
	Params map[string]interface{} `json:"params,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects specs with a missing or unknown type. Producers must get
// an error at enqueue time, never a silently accepted bad command.
func (s *CommandSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid command spec: %w", err)
	}
	return nil
}

// Command is a single requested mutation against the external document.
// JSON field names are the wire contract with the polling executor.
type Command struct {
	ID          string                 `json:"id"`
	Type        CommandType            `json:"type"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Status      CommandStatus          `json:"status"`
	Result      interface{}            `json:"result,omitempty"`
	Error       interface{}            `json:"error,omitempty"`
	CreatedAt   int64                  `json:"createdAt"`             // epoch millis
	CompletedAt int64                  `json:"completedAt,omitempty"` // epoch millis, zero while pending
}

// BatchOutcome is one sub-command's result inside a batch command's aggregate.
type BatchOutcome struct {
	Type    CommandType `json:"type"`
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// BatchError is the error payload reported when one or more sub-commands of a
// batch fail. The per-sub-command outcomes ride along so partial successes
// are not lost.
type BatchError struct {
	Message string         `json:"message"`
	Results []BatchOutcome `json:"results"`
}
