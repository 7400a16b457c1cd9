package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestNoFlagConflicts verifies that all subcommands can be initialized
// without flag shorthand conflicts. This catches issues like multiple
// commands defining the same shorthand (e.g., -v for both --verbosity
// and --verbose).
func TestNoFlagConflicts(t *testing.T) {
	root := RootCmd()
	if root == nil {
		t.Fatal("RootCmd() returned nil")
	}

	subcommands := root.Commands()
	if len(subcommands) == 0 {
		t.Fatal("expected at least one subcommand")
	}

	for _, cmd := range subcommands {
		t.Run(cmd.Name(), func(t *testing.T) {
			// Merging persistent and local flags panics on a conflict.
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("flag conflict in %q command: %v", cmd.Name(), r)
				}
			}()

			_ = cmd.Flags()
			_ = cmd.InheritedFlags()
		})
	}
}

// TestGlobalVerbosityFlag verifies the global -v flag exists and is properly configured.
func TestGlobalVerbosityFlag(t *testing.T) {
	root := RootCmd()

	vFlag := root.PersistentFlags().Lookup("verbosity")
	if vFlag == nil {
		t.Fatal("expected persistent 'verbosity' flag on root command")
	}
	if vFlag.Shorthand != "v" {
		t.Errorf("expected verbosity flag shorthand to be 'v', got %q", vFlag.Shorthand)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := RootCmd()

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"verbosity", "v", "1"},
		{"log-format", "", "text"},
		{"mode", "m", ""},
		{"dir", "C", ""},
		{"build-path", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := root.PersistentFlags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("persistent flag %q not found", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.def {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.def)
			}
		})
	}
}

// TestSubcommandsExist verifies expected subcommands are registered.
func TestSubcommandsExist(t *testing.T) {
	root := RootCmd()

	expectedCmds := []string{"version", "build", "run", "rebuild", "clean", "status", "watch", "encoding"}

	for _, name := range expectedCmds {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

// TestVerboseFlagNoShorthand verifies that subcommand --verbose flags
// don't have a -v shorthand (which would conflict with root's -v).
func TestVerboseFlagNoShorthand(t *testing.T) {
	root := RootCmd()

	cmdsWithVerbose := []string{"watch", "status"}

	for _, cmdName := range cmdsWithVerbose {
		t.Run(cmdName, func(t *testing.T) {
			var cmd *cobra.Command
			for _, c := range root.Commands() {
				if c.Name() == cmdName {
					cmd = c
					break
				}
			}
			if cmd == nil {
				t.Fatalf("command %q not found", cmdName)
			}

			verboseFlag := cmd.Flags().Lookup("verbose")
			if verboseFlag == nil {
				t.Fatalf("command %q has no verbose flag", cmdName)
			}
			if verboseFlag.Shorthand != "" {
				t.Errorf("command %q verbose flag should not have shorthand, got %q",
					cmdName, verboseFlag.Shorthand)
			}
		})
	}
}
