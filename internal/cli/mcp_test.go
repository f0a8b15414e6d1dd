package cli

import (
	"strings"
	"testing"
)

func TestMCPServeCmd_NilSession(t *testing.T) {
	orig := Session
	defer func() { Session = orig }()
	Session = nil

	err := mcpServeCmd.RunE(mcpServeCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("error = %v", err)
	}
}

func TestMCPCommand_Registration(t *testing.T) {
	found := false
	for _, cmd := range mcpCmd.Commands() {
		if cmd.Name() == "serve" {
			found = true
		}
	}
	if !found {
		t.Error("mcp serve subcommand not registered")
	}
}
