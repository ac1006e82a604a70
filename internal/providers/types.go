// Package providers implements the uniform provider interface over a local,
// zero-cost backend and one or more authenticated, priced-per-token cloud
// backends. Callers never switch on backend identity: every provider
// exposes the same four operations and returns the same NormalizedResponse
// shape.
package providers

import (
	"context"

	"github.com/nexuscore/agentcore/internal/tools"
	"github.com/nexuscore/agentcore/internal/usage"
	"github.com/nexuscore/agentcore/pkg/models"
)

// FinishReason classifies why generation stopped.
type FinishReason string

const (
	FinishStop    FinishReason = "stop"
	FinishToolUse FinishReason = "tool_use"
	FinishLength  FinishReason = "length"
	FinishError   FinishReason = "error"
)

// NormalizedResponse is the common shape every provider returns, regardless
// of backend.
type NormalizedResponse struct {
	Content      string
	ToolCalls    []models.ToolCall
	Model        string
	Usage        usage.Usage
	FinishReason FinishReason
	CostUSD      float64
	Metadata     map[string]any
}

// GenerateRequest is the common input every provider accepts.
type GenerateRequest struct {
	Messages      []models.Message
	System        string
	Model         string
	Tools         []tools.ToolDefinition
	Temperature   float64
	MaxTokens     int
	ContextWindow int
}

// StreamSink receives textual chunks as they are produced by GenerateStream,
// before the aggregate NormalizedResponse is returned.
type StreamSink func(chunk string)

// Provider is the capability set every backend implements. Local
// (self-hosted, zero cost) and cloud (authenticated, priced) backends are
// interchangeable behind this interface.
type Provider interface {
	Name() string
	IsLocal() bool
	Generate(ctx context.Context, req GenerateRequest) (*NormalizedResponse, error)
	GenerateStream(ctx context.Context, req GenerateRequest, sink StreamSink) (*NormalizedResponse, error)
	// Available is a cheap liveness check. It must never consume tokens.
	Available(ctx context.Context) bool
	ModelLoaded(ctx context.Context, model string) bool
}
