package main

import "testing"

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"serve", "run", "jobs"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestJobsCmdIncludesCRUDSubcommands(t *testing.T) {
	jobs := buildJobsCmd()
	names := map[string]bool{}
	for _, sub := range jobs.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"list", "add-one-shot", "add-cron", "add-interval", "remove", "pause", "resume"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected jobs subcommand %q to be registered", name)
		}
	}
}
