package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/pkg/models"
)

const maxReadFileBytes = 256 * 1024

// NewReadFileTool builds the "read_file" tool: reads a file relative to
// workDir and returns its contents, capped at maxReadFileBytes. Read-only
// and path-confined, so it never requires confirmation; output is still
// mixed-trust since file contents are attacker-influenceable.
func NewReadFileTool(workDir string) *tools.Tool {
	return &tools.Tool{
		Definition: tools.ToolDefinition{
			Name:        "read_file",
			Description: "Read a text file from the workspace and return its contents.",
			Parameters: []byte(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Path relative to the workspace root."}
				},
				"required": ["path"]
			}`),
			RequiresConfirmation: false,
			Trust:                tools.TrustMixed,
		},
		Handler: func(_ context.Context, _ *models.Session, args map[string]any) (models.ToolResult, error) {
			rel, _ := args["path"].(string)
			rel = strings.TrimSpace(rel)
			if rel == "" {
				return models.FailResult("path is required", nil), nil
			}

			full := filepath.Join(workDir, rel)
			if !strings.HasPrefix(full, filepath.Clean(workDir)+string(filepath.Separator)) && full != filepath.Clean(workDir) {
				return models.FailResult("path escapes the workspace root", nil), nil
			}

			data, err := os.ReadFile(full)
			if err != nil {
				return models.FailResult(fmt.Sprintf("reading %s: %v", rel, err), nil), nil
			}
			if len(data) > maxReadFileBytes {
				data = data[:maxReadFileBytes]
			}
			return models.OkResult(string(data), map[string]any{"path": rel, "bytes": len(data)}), nil
		},
	}
}
