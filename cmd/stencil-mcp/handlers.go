package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stencil/internal/bridge"
	"github.com/ternarybob/stencil/internal/common"
	"github.com/ternarybob/stencil/internal/figma"
	"github.com/ternarybob/stencil/internal/models"
	relayserver "github.com/ternarybob/stencil/internal/server"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleQueueCommand implements the queue_command tool
func handleQueueCommand(queue *bridge.Queue, logger arbor.ILogger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmdType, err := request.RequireString("type")
		if err != nil || cmdType == "" {
			return textResult("Error: type parameter is required"), nil
		}

		args := request.GetArguments()
		params, _ := args["params"].(map[string]interface{})

		cmd, err := queue.Enqueue(models.CommandSpec{
			Type:   models.CommandType(cmdType),
			Params: params,
		})
		if err != nil {
			logger.Warn().Err(err).Str("type", cmdType).Msg("Enqueue rejected")
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatEnqueued(cmd)), nil
	}
}

// handleQueueCommands implements the queue_commands tool
func handleQueueCommands(queue *bridge.Queue, logger arbor.ILogger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileKey, err := request.RequireString("file_key")
		if err != nil || fileKey == "" {
			return textResult("Error: file_key parameter is required"), nil
		}

		args := request.GetArguments()
		raw, ok := args["commands"].([]interface{})
		if !ok || len(raw) == 0 {
			return textResult("Error: commands must be a non-empty array of {type, params} objects"), nil
		}

		specs := make([]models.CommandSpec, 0, len(raw))
		for i, item := range raw {
			entry, ok := item.(map[string]interface{})
			if !ok {
				return textResult(fmt.Sprintf("Error: commands[%d] must be an object", i)), nil
			}
			cmdType, _ := entry["type"].(string)
			params, _ := entry["params"].(map[string]interface{})
			specs = append(specs, models.CommandSpec{
				Type:   models.CommandType(cmdType),
				Params: params,
			})
		}

		commands, err := queue.EnqueueBatch(fileKey, specs)
		if err != nil {
			logger.Warn().Err(err).Str("file_key", fileKey).Msg("Batch enqueue rejected")
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		return textResult(formatBatchEnqueued(fileKey, commands)), nil
	}
}

// handleListPendingCommands implements the list_pending_commands tool
func handleListPendingCommands(queue *bridge.Queue) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatCommandList("Pending commands", queue.FileKey(), queue.ListPending())), nil
	}
}

// handleListAllCommands implements the list_all_commands tool
func handleListAllCommands(queue *bridge.Queue) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileKey, commands := queue.ListAll()
		return textResult(formatCommandList("All commands", fileKey, commands)), nil
	}
}

// handleGetCommand implements the get_command tool
func handleGetCommand(queue *bridge.Queue) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("command_id")
		if err != nil || id == "" {
			return textResult("Error: command_id parameter is required"), nil
		}

		cmd, found := queue.Get(id)
		if !found {
			return textResult(fmt.Sprintf("Command not found: %s", id)), nil
		}
		return textResult(formatCommandDetail(cmd)), nil
	}
}

// handleClearCommands implements the clear_commands tool
func handleClearCommands(queue *bridge.Queue, logger arbor.ILogger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		_, total := queue.Counts()
		queue.Clear()
		logger.Info().Int("discarded", total).Msg("Queue cleared via tool")
		return textResult(fmt.Sprintf("Cleared %d command(s); file key context reset.", total)), nil
	}
}

// handleBridgeStatus implements the bridge_status tool
func handleBridgeStatus(queue *bridge.Queue, relay *relayserver.Server, config *common.Config) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pending, total := queue.Counts()
		return textResult(formatBridgeStatus(config.Server.Host, relay.CurrentPort(), pending, total)), nil
	}
}

// handleGetFile implements the get_file tool
func handleGetFile(client *figma.Client, logger arbor.ILogger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileKey, err := request.RequireString("file_key")
		if err != nil || fileKey == "" {
			return textResult("Error: file_key parameter is required"), nil
		}

		file, err := client.GetFile(ctx, fileKey)
		if err != nil {
			logger.Error().Err(err).Str("file_key", fileKey).Msg("GetFile failed")
			return textResult(fmt.Sprintf("API error: %v", err)), nil
		}
		return textResult(formatJSON(file)), nil
	}
}

// handleGetFileNodes implements the get_file_nodes tool
func handleGetFileNodes(client *figma.Client, logger arbor.ILogger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileKey, err := request.RequireString("file_key")
		if err != nil || fileKey == "" {
			return textResult("Error: file_key parameter is required"), nil
		}

		nodeIDs := request.GetStringSlice("node_ids", nil)
		if len(nodeIDs) == 0 {
			return textResult("Error: node_ids parameter is required"), nil
		}

		nodes, err := client.GetFileNodes(ctx, fileKey, nodeIDs)
		if err != nil {
			logger.Error().Err(err).Str("file_key", fileKey).Msg("GetFileNodes failed")
			return textResult(fmt.Sprintf("API error: %v", err)), nil
		}
		return textResult(formatJSON(nodes)), nil
	}
}

// handleGetComments implements the get_comments tool
func handleGetComments(client *figma.Client, logger arbor.ILogger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fileKey, err := request.RequireString("file_key")
		if err != nil || fileKey == "" {
			return textResult("Error: file_key parameter is required"), nil
		}

		comments, err := client.GetComments(ctx, fileKey)
		if err != nil {
			logger.Error().Err(err).Str("file_key", fileKey).Msg("GetComments failed")
			return textResult(fmt.Sprintf("API error: %v", err)), nil
		}
		return textResult(formatJSON(comments)), nil
	}
}
