package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"syscover/internal/render"
)

// helpText calls the help function and returns the output as a string.
func helpText() string {
	var sb strings.Builder
	printUsage(&sb)
	return sb.String()
}

// longHelpText returns the long help for a named command.
func longHelpText(name string) string {
	var sb strings.Builder
	printCommandHelp(&sb, name)
	return sb.String()
}

// TestHelpContainsAllCommands verifies the help listing is derived from
// the commands slice.
func TestHelpContainsAllCommands(t *testing.T) {
	help := helpText()
	for _, cmd := range commands {
		if !strings.Contains(help, cmd.name) {
			t.Errorf("help output missing command %q", cmd.name)
		}
		if !strings.Contains(help, cmd.short) {
			t.Errorf("help output missing short description for %q", cmd.name)
		}
	}
}

// TestLongHelpForKnownCommands verifies each registered command has a
// long help section containing its usage line.
func TestLongHelpForKnownCommands(t *testing.T) {
	for _, cmd := range commands {
		t.Run(cmd.name, func(t *testing.T) {
			out := longHelpText(cmd.name)
			if !strings.Contains(out, cmd.usage) {
				t.Errorf("long help for %q missing usage line %q\ngot: %s", cmd.name, cmd.usage, out)
			}
		})
	}
}

// TestLongHelpUnknownCommand verifies help for an unknown name prints a
// fallback instead of erroring.
func TestLongHelpUnknownCommand(t *testing.T) {
	out := longHelpText("no-such-command")
	if !strings.Contains(out, "unknown") {
		t.Errorf("expected unknown-command message, got: %s", out)
	}
}

// TestDispatchNoArgs verifies bare invocation prints help without error.
func TestDispatchNoArgs(t *testing.T) {
	if err := dispatch([]string{}); err != nil {
		t.Errorf("dispatch() with no args returned error: %v", err)
	}
}

// TestDispatchHelpFlag verifies --help / -h produce help without error.
func TestDispatchHelpFlag(t *testing.T) {
	for _, f := range []string{"--help", "-h"} {
		t.Run(f, func(t *testing.T) {
			if err := dispatch([]string{f}); err != nil {
				t.Errorf("dispatch(%q) returned error: %v", f, err)
			}
		})
	}
}

// TestDispatchHelpSubcommand verifies "help <cmd>" works for every command.
func TestDispatchHelpSubcommand(t *testing.T) {
	for _, cmd := range commands {
		t.Run(cmd.name, func(t *testing.T) {
			if err := dispatch([]string{"help", cmd.name}); err != nil {
				t.Errorf("dispatch(help %q) returned error: %v", cmd.name, err)
			}
		})
	}
}

// TestDispatchUnknownCommand verifies an unknown name errors with a
// suggestion rather than being silently ignored.
func TestDispatchUnknownCommand(t *testing.T) {
	err := dispatch([]string{"no-such-command-xyz"})
	if err == nil {
		t.Fatal("expected error for unknown command, got nil")
	}
	if !strings.Contains(err.Error(), "unknown") {
		t.Errorf("expected 'unknown' in error, got: %v", err)
	}
}

// TestDispatchScanBadArgs verifies scan without a directory returns a
// usage error, confirming dispatch reached the subcommand.
func TestDispatchScanBadArgs(t *testing.T) {
	err := dispatch([]string{"scan"})
	if err == nil {
		t.Fatal("expected error for scan with no dir, got nil")
	}
	if strings.Contains(err.Error(), "unknown command") {
		t.Errorf("got 'unknown command' for known subcommand: %v", err)
	}
}

// TestCommandsHaveRequiredFields verifies every command is fully
// described.
func TestCommandsHaveRequiredFields(t *testing.T) {
	for _, cmd := range commands {
		if cmd.name == "" || cmd.short == "" || cmd.usage == "" || cmd.run == nil {
			t.Errorf("command %+v missing required fields", cmd.name)
		}
	}
}

// ---------------------------------------------------------------------------
// Pipeline tests
// ---------------------------------------------------------------------------

// writeWorkspace builds a temp dir with a settings file, a CSV status
// sheet, and application reports.
func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(dir, ".syscover"), 0o755); err != nil {
		t.Fatal(err)
	}
	settings := "sheet: status.csv\nreports: to_aggregate\n"
	if err := os.WriteFile(filepath.Join(dir, ".syscover", "settings.yaml"), []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}

	sheetCSV := "id,name,status\n" +
		"57,fork,\n" +
		"12,brk,\"okay, fully supported\"\n"
	if err := os.WriteFile(filepath.Join(dir, "status.csv"), []byte(sheetCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	reports := filepath.Join(dir, "to_aggregate")
	if err := os.MkdirAll(reports, 0o755); err != nil {
		t.Fatal(err)
	}
	app1 := `{"static_data": {"system_calls": {"fork": 1}}}`
	if err := os.WriteFile(filepath.Join(reports, "app1.json"), []byte(app1), 0o644); err != nil {
		t.Fatal(err)
	}
	app2 := `{"static_data": {"system_calls": {"brk": 2}}, "dynamic_data": {"system_calls": ["brk", "xyz_unknown"]}}`
	if err := os.WriteFile(filepath.Join(reports, "app2.json"), []byte(app2), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// TestLoadAndAggregate_Reports runs the full pipeline against a fixture
// workspace and checks both rendered reports.
func TestLoadAndAggregate_Reports(t *testing.T) {
	dir := writeWorkspace(t)

	agg, err := loadAndAggregate(dir)
	if err != nil {
		t.Fatalf("loadAndAggregate: %v", err)
	}

	var apps strings.Builder
	if err := render.AppReport(&apps, agg.Applications()); err != nil {
		t.Fatalf("AppReport: %v", err)
	}
	wantApps := "app,total,okay,not_impl,reg_miss,incomplete,stubbed,planned,broken,in_progress,absent\n" +
		"app1,1,0,1,0,0,0,0,0,0,0\n" +
		"app2,2,1,0,0,0,0,0,0,0,1\n"
	if apps.String() != wantApps {
		t.Errorf("app report = %q, want %q", apps.String(), wantApps)
	}

	var sys strings.Builder
	if err := render.SyscallReport(&sys, agg.Syscalls(), agg.Undefined()); err != nil {
		t.Fatalf("SyscallReport: %v", err)
	}
	wantSys := "syscall,status,num_apps\n" +
		"fork,NOT_IMPL,1\n" +
		"brk,OKAY,1\n" +
		"xyz_unknown,ABSENT,1\n"
	if sys.String() != wantSys {
		t.Errorf("syscall report = %q, want %q", sys.String(), wantSys)
	}
}

// TestLoadAndAggregate_MissingSheet verifies a missing spreadsheet is
// fatal for the run.
func TestLoadAndAggregate_MissingSheet(t *testing.T) {
	dir := writeWorkspace(t)
	if err := os.Remove(filepath.Join(dir, "status.csv")); err != nil {
		t.Fatal(err)
	}

	if _, err := loadAndAggregate(dir); err == nil {
		t.Fatal("expected error for missing sheet, got nil")
	}
}
