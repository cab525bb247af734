package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/stencil/internal/app"
	"github.com/ternarybob/stencil/internal/common"
	relayserver "github.com/ternarybob/stencil/internal/server"
)

func main() {
	// Load configuration
	configPath := os.Getenv("STENCIL_CONFIG")
	if configPath == "" {
		configPath = "stencil.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging so MCP stdio traffic stays clean
	logger := common.QuietLogger()

	application, err := app.NewWithTools(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	// Start the bridge relay in-process; the executor plugin polls it while
	// the MCP host drives the tools over stdio.
	relay := relayserver.New(config, application.Queue, application.EventService, logger)
	go func() {
		if err := relay.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Bridge relay failed")
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		relay.Shutdown(ctx)
	}()

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"stencil",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register bridge tools
	mcpServer.AddTool(createQueueCommandTool(), handleQueueCommand(application.Queue, logger))
	mcpServer.AddTool(createQueueCommandsTool(), handleQueueCommands(application.Queue, logger))
	mcpServer.AddTool(createListPendingCommandsTool(), handleListPendingCommands(application.Queue))
	mcpServer.AddTool(createListAllCommandsTool(), handleListAllCommands(application.Queue))
	mcpServer.AddTool(createGetCommandTool(), handleGetCommand(application.Queue))
	mcpServer.AddTool(createClearCommandsTool(), handleClearCommands(application.Queue, logger))
	mcpServer.AddTool(createBridgeStatusTool(), handleBridgeStatus(application.Queue, relay, config))

	// Register design-tool read tools
	mcpServer.AddTool(createGetFileTool(), handleGetFile(application.FigmaClient, logger))
	mcpServer.AddTool(createGetFileNodesTool(), handleGetFileNodes(application.FigmaClient, logger))
	mcpServer.AddTool(createGetCommentsTool(), handleGetComments(application.FigmaClient, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
