package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nexuscore/agentcore/internal/coreagent"
	"github.com/nexuscore/agentcore/internal/router"
	"github.com/nexuscore/agentcore/pkg/models"
)

func buildRunCmd() *cobra.Command {
	var agentName string
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "run one prompt through the agent loop and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), args[0], agentName)
		},
	}
	cmd.Flags().StringVar(&agentName, "agent", "", "explicit agent name (@mention); empty dispatches by keyword")
	return cmd
}

func runOnce(ctx context.Context, prompt, agentName string) error {
	s, err := buildStack(configPath)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer s.audit.Close()

	message := prompt
	if agentName != "" {
		message = "@" + agentName + " " + prompt
	}
	dispatched, rest := s.dispatch.Dispatch(message)

	session := models.NewSession(uuid.NewString(), models.SourceInteractive)
	promptIn := coreagent.PromptInput{ContextWindow: coreagent.DefaultConfig().ContextWindow}

	result, err := s.runtime.Run(ctx, session, rest, promptIn, router.Options{})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	fmt.Printf("[agent=%s]\n", dispatched)
	switch result.Outcome {
	case coreagent.OutcomeCompleted, coreagent.OutcomeTruncated:
		fmt.Println(result.Content)
	case coreagent.OutcomePending:
		fmt.Printf("awaiting confirmation for tool call: %s\n", result.PendingToolCall.Name)
	}
	return nil
}
