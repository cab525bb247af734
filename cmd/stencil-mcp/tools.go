package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createQueueCommandTool returns the queue_command tool definition
func createQueueCommandTool() mcp.Tool {
	return mcp.NewTool("queue_command",
		mcp.WithDescription("Queue a single design mutation command for the plugin executor. The plugin polls the bridge and applies the command to the open document."),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Command type: create_page, rename_page, delete_page, move_node, rename_node, delete_node, create_frame, create_component, create_style, group_nodes, ungroup_node, set_property, batch"),
		),
		mcp.WithObject("params",
			mcp.Description("Command parameters; shape depends on type (e.g. create_frame: name, width, height, optional x/y/pageId)"),
		),
	)
}

// createQueueCommandsTool returns the queue_commands tool definition
func createQueueCommandsTool() mcp.Tool {
	return mcp.NewTool("queue_commands",
		mcp.WithDescription("Queue a batch of design mutation commands in order, recording the target file key as queue context"),
		mcp.WithString("file_key",
			mcp.Required(),
			mcp.Description("File key of the document the commands target"),
		),
		mcp.WithArray("commands",
			mcp.Required(),
			mcp.Description("Array of {type, params} command specs, executed in order"),
		),
	)
}

// createListPendingCommandsTool returns the list_pending_commands tool definition
func createListPendingCommandsTool() mcp.Tool {
	return mcp.NewTool("list_pending_commands",
		mcp.WithDescription("List commands waiting for the plugin executor, in enqueue order"),
	)
}

// createListAllCommandsTool returns the list_all_commands tool definition
func createListAllCommandsTool() mcp.Tool {
	return mcp.NewTool("list_all_commands",
		mcp.WithDescription("Diagnostic dump of the command queue: every command with its status, result or error"),
	)
}

// createGetCommandTool returns the get_command tool definition
func createGetCommandTool() mcp.Tool {
	return mcp.NewTool("get_command",
		mcp.WithDescription("Retrieve a single queued command by id, including its result or error once finished"),
		mcp.WithString("command_id",
			mcp.Required(),
			mcp.Description("Command id returned by queue_command/queue_commands"),
		),
	)
}

// createClearCommandsTool returns the clear_commands tool definition
func createClearCommandsTool() mcp.Tool {
	return mcp.NewTool("clear_commands",
		mcp.WithDescription("Discard every queued command and reset the file key context. Irrecoverable."),
	)
}

// createBridgeStatusTool returns the bridge_status tool definition
func createBridgeStatusTool() mcp.Tool {
	return mcp.NewTool("bridge_status",
		mcp.WithDescription("Report the bridge relay address, plugin bootstrap URL and queue counts"),
	)
}

// createGetFileTool returns the get_file tool definition
func createGetFileTool() mcp.Tool {
	return mcp.NewTool("get_file",
		mcp.WithDescription("Fetch a file's document tree and metadata from the design tool REST API (read-only, cached)"),
		mcp.WithString("file_key",
			mcp.Required(),
			mcp.Description("File key from the file's URL"),
		),
	)
}

// createGetFileNodesTool returns the get_file_nodes tool definition
func createGetFileNodesTool() mcp.Tool {
	return mcp.NewTool("get_file_nodes",
		mcp.WithDescription("Fetch specific nodes from a file by id (read-only, cached)"),
		mcp.WithString("file_key",
			mcp.Required(),
			mcp.Description("File key from the file's URL"),
		),
		mcp.WithArray("node_ids",
			mcp.WithStringItems(),
			mcp.Required(),
			mcp.Description("Node ids, e.g. [\"1:23\", \"1:42\"]"),
		),
	)
}

// createGetCommentsTool returns the get_comments tool definition
func createGetCommentsTool() mcp.Tool {
	return mcp.NewTool("get_comments",
		mcp.WithDescription("Fetch a file's comments from the design tool REST API (read-only, cached)"),
		mcp.WithString("file_key",
			mcp.Required(),
			mcp.Description("File key from the file's URL"),
		),
	)
}
