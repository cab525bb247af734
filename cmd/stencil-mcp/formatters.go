package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/stencil/internal/models"
)

// formatEnqueued renders a single enqueue confirmation
func formatEnqueued(cmd models.Command) string {
	var sb strings.Builder
	sb.WriteString("Command queued for the plugin executor.\n\n")
	sb.WriteString(fmt.Sprintf("- **id**: `%s`\n", cmd.ID))
	sb.WriteString(fmt.Sprintf("- **type**: `%s`\n", cmd.Type))
	sb.WriteString(fmt.Sprintf("- **status**: %s\n", cmd.Status))
	sb.WriteString("\nUse `get_command` with the id to check the outcome.")
	return sb.String()
}

// formatBatchEnqueued renders a batch enqueue confirmation
func formatBatchEnqueued(fileKey string, commands []models.Command) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Queued %d command(s) for file `%s`.\n\n", len(commands), fileKey))
	for i, cmd := range commands {
		sb.WriteString(fmt.Sprintf("%d. `%s` - `%s`\n", i+1, cmd.Type, cmd.ID))
	}
	return sb.String()
}

// formatCommandList renders a markdown table of commands
func formatCommandList(title, fileKey string, commands []models.Command) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	if fileKey != "" {
		sb.WriteString(fmt.Sprintf("File key: `%s`\n\n", fileKey))
	}
	if len(commands) == 0 {
		sb.WriteString("_None._\n")
		return sb.String()
	}

	sb.WriteString("| # | ID | Type | Status | Created |\n")
	sb.WriteString("|---|----|------|--------|--------|\n")
	for i, cmd := range commands {
		created := time.UnixMilli(cmd.CreatedAt).Format("15:04:05")
		sb.WriteString(fmt.Sprintf("| %d | `%s` | %s | %s | %s |\n",
			i+1, cmd.ID, cmd.Type, cmd.Status, created))
	}
	return sb.String()
}

// formatCommandDetail renders one command with its payloads
func formatCommandDetail(cmd models.Command) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Command `%s`\n\n", cmd.ID))
	sb.WriteString(fmt.Sprintf("- **type**: `%s`\n", cmd.Type))
	sb.WriteString(fmt.Sprintf("- **status**: %s\n", cmd.Status))
	sb.WriteString(fmt.Sprintf("- **created**: %s\n", time.UnixMilli(cmd.CreatedAt).Format(time.RFC3339)))
	if cmd.CompletedAt > 0 {
		sb.WriteString(fmt.Sprintf("- **completed**: %s\n", time.UnixMilli(cmd.CompletedAt).Format(time.RFC3339)))
	}
	if cmd.Params != nil {
		sb.WriteString("\n**Params**\n")
		sb.WriteString(formatJSON(cmd.Params))
	}
	if cmd.Result != nil {
		sb.WriteString("\n**Result**\n")
		sb.WriteString(formatJSON(cmd.Result))
	}
	if cmd.Error != nil {
		sb.WriteString("\n**Error**\n")
		sb.WriteString(formatJSON(cmd.Error))
	}
	return sb.String()
}

// formatBridgeStatus renders the bridge_status summary
func formatBridgeStatus(host string, port, pending, total int) string {
	var sb strings.Builder
	sb.WriteString("## Bridge status\n\n")
	sb.WriteString(fmt.Sprintf("- **relay**: http://%s:%d\n", host, port))
	sb.WriteString(fmt.Sprintf("- **plugin bootstrap**: http://%s:%d/plugin\n", host, port))
	sb.WriteString(fmt.Sprintf("- **pending commands**: %d\n", pending))
	sb.WriteString(fmt.Sprintf("- **total commands**: %d\n", total))
	return sb.String()
}

// formatJSON renders a value as an indented JSON code block
func formatJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("```\n(unrenderable: %v)\n```\n", err)
	}
	return fmt.Sprintf("```json\n%s\n```\n", data)
}
