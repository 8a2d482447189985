package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRoot() (*RootCommand, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	rc := NewRootCommand()
	rc.stdout, rc.stderr = &stdout, &stderr
	rc.lookup = func(string) (string, bool) { return "", false }
	return rc, &stdout, &stderr
}

func TestRootCommandPatterns(t *testing.T) {
	rc, stdout, _ := newTestRoot()
	if err := rc.Execute([]string{"patterns"}); err != nil {
		t.Fatalf("patterns returned error: %v", err)
	}
	if !strings.Contains(stdout.String(), "launchpad          3 pulses over 120ms") {
		t.Fatalf("unexpected patterns output: %q", stdout.String())
	}
}

func TestRootCommandVersion(t *testing.T) {
	origVersion, origGOOS, origArch := runtimeVersion, runtimeGOOS, runtimeGOARCH
	runtimeVersion = func() string { return "go1.24.0" }
	runtimeGOOS = func() string { return "darwin" }
	runtimeGOARCH = func() string { return "arm64" }
	defer func() { runtimeVersion, runtimeGOOS, runtimeGOARCH = origVersion, origGOOS, origArch }()

	rc, stdout, _ := newTestRoot()
	if err := rc.Execute([]string{"version"}); err != nil {
		t.Fatalf("version returned error: %v", err)
	}
	if !strings.Contains(stdout.String(), "(go1.24.0 darwin/arm64)") {
		t.Fatalf("unexpected version output: %q", stdout.String())
	}

	stdout.Reset()
	if err := rc.Execute([]string{"version", "-short"}); err != nil {
		t.Fatalf("version -short returned error: %v", err)
	}
	if strings.Contains(stdout.String(), "darwin") || strings.TrimSpace(stdout.String()) == "" {
		t.Fatalf("unexpected short version output: %q", stdout.String())
	}
}

func TestRootCommandUnknown(t *testing.T) {
	rc, _, stderr := newTestRoot()
	if err := rc.Execute([]string{"bogus"}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if !strings.Contains(stderr.String(), `Unknown command "bogus"`) {
		t.Fatalf("expected unknown command message, got %q", stderr.String())
	}
}

func TestRootCommandHelp(t *testing.T) {
	rc, stdout, _ := newTestRoot()
	if err := rc.Execute(nil); err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	for _, want := range []string{"Commands:", "replay", "-config"} {
		if !strings.Contains(stdout.String(), want) {
			t.Fatalf("expected %q in help, got %q", want, stdout.String())
		}
	}

	stdout.Reset()
	if err := rc.Execute([]string{"help", "replay"}); err != nil {
		t.Fatalf("help replay returned error: %v", err)
	}
	if !strings.Contains(stdout.String(), "Usage: tactile replay [flags] <events.jsonl>") ||
		!strings.Contains(stdout.String(), "-realtime") {
		t.Fatalf("unexpected command help: %q", stdout.String())
	}

	if err := rc.Execute([]string{"help", "bogus"}); err == nil {
		t.Fatalf("expected error for help on unknown command")
	}
}

func TestRootCommandConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tactile.yaml")
	if err := os.WriteFile(path, []byte("source:\n  kind: synthetic\nactuator:\n  kind: log\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	rc, stdout, _ := newTestRoot()
	rc.lookup = func(key string) (string, bool) {
		if key == configEnv {
			return path, true
		}
		return "", false
	}
	if err := rc.Execute([]string{"--log-level", "error", "doctor"}); err != nil {
		t.Fatalf("doctor returned error: %v", err)
	}
	if !strings.Contains(stdout.String(), "source=synthetic actuator=log") {
		t.Fatalf("expected env config to be used, got %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "origin: "+path) {
		t.Fatalf("expected config origin in output, got %q", stdout.String())
	}
}
