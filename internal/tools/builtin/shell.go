// Package builtin provides the default tool set wired into every Runtime:
// a confirmation-gated shell tool and a read-only workspace file reader.
// Grounded on the teacher's internal/tools/exec package, adapted to the
// Tool/Handler shape and trust model of internal/tools.
package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/pkg/models"
)

const defaultShellTimeout = 30 * time.Second

// NewShellTool builds the "shell" tool: runs one command via `sh -c` inside
// workDir and returns combined stdout/stderr. It always requires
// confirmation (spec.md §4.2's trust model has no shell-equivalent tool
// that auto-approves) and its output is untrusted, so it is sanitized
// before rejoining the conversation.
func NewShellTool(workDir string) *tools.Tool {
	return &tools.Tool{
		Definition: tools.ToolDefinition{
			Name:        "shell",
			Description: "Run a shell command in the workspace and return its combined output.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"command": {"type": "string", "description": "Shell command to execute."},
					"timeout_seconds": {"type": "integer", "minimum": 0, "description": "Timeout in seconds (0 uses the tool default)."}
				},
				"required": ["command"]
			}`),
			RequiresConfirmation: true,
			Trust:                tools.TrustUntrusted,
			MaxExecutionTime:     60 * time.Second,
		},
		Handler: func(ctx context.Context, _ *models.Session, args map[string]any) (models.ToolResult, error) {
			command, _ := args["command"].(string)
			command = strings.TrimSpace(command)
			if command == "" {
				return models.FailResult("command is required", nil), nil
			}

			timeout := defaultShellTimeout
			if secs, ok := args["timeout_seconds"].(float64); ok && secs > 0 {
				timeout = time.Duration(secs) * time.Second
			}
			runCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(runCtx, "sh", "-c", command)
			if workDir != "" {
				cmd.Dir = workDir
			}
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out

			if err := cmd.Run(); err != nil {
				return models.FailResult(fmt.Sprintf("command failed: %v\n%s", err, out.String()), nil), nil
			}
			return models.OkResult(out.String(), nil), nil
		},
	}
}
