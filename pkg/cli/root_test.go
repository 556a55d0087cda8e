package cli

import "testing"

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	if cmd == nil {
		t.Fatal("NewRootCmd() returned nil")
	}
	if cmd.Use != "rewind" {
		t.Fatalf("Use = %q, want %q", cmd.Use, "rewind")
	}
	for _, name := range []string{"record", "play", "inspect", "verify", "generate", "archive", "monitor"} {
		if c, _, err := cmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
