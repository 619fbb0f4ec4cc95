package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if !strings.Contains(out.String(), "workforce") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRunFlagsRegistered(t *testing.T) {
	for _, name := range []string{"tasks", "max-agents", "tui", "watch", "filter"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("run command missing --%s", name)
		}
	}
}
