package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/christianlegge/waybar-timer/go/internal/timer"
)

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"version"}, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stdout.String(); got != version+"\n" {
		t.Fatalf("stdout = %q", got)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	path := writeTestConfig(t)
	tests := [][]string{
		{},
		{"explode"},
		{"increase"},
		{"increase", "ten"},
		{"decrease", "-5"},
		{"increase", "1", "2"},
		{"skip", "now"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			err := run(context.Background(), append([]string{"-config", path}, args...), &bytes.Buffer{}, &bytes.Buffer{})
			if !errors.Is(err, errUsage) {
				t.Fatalf("run(%q) error = %v, want usage error", args, err)
			}
		})
	}
}

func TestParseSeconds(t *testing.T) {
	n, err := parseSeconds("increase", []string{"600"})
	if err != nil || n != 600 {
		t.Fatalf("parseSeconds = %d, %v", n, err)
	}
	if _, err := parseSeconds("increase", []string{"4294967296"}); err == nil {
		t.Fatal("parseSeconds accepted a value above 32 bits")
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "updates_socket: " + filepath.Join(dir, "updates.sock") + "\n" +
		"commands_socket: " + filepath.Join(dir, "commands.sock") + "\n" +
		"notifications: false\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRun_ServeAndClients(t *testing.T) {
	path := writeTestConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- run(ctx, []string{"-config", path, "serve"}, &bytes.Buffer{}, &bytes.Buffer{})
	}()

	client := func(args ...string) (string, error) {
		var stdout bytes.Buffer
		err := run(context.Background(), append([]string{"-config", path}, args...), &stdout, &bytes.Buffer{})
		return stdout.String(), err
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		out, err := client("status")
		if err == nil {
			if !strings.Contains(out, `"alt":"standby-focus"`) {
				t.Fatalf("status = %q, want standby-focus", out)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("service never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := client("new", "true"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if out, _ := client("status"); !strings.Contains(out, `"alt":"running-focus"`) {
		t.Fatalf("status after new = %q, want running-focus", out)
	}
	if _, err := client("decrease", "60"); err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if _, err := client("togglepause"); err != nil {
		t.Fatalf("togglepause: %v", err)
	}
	if out, _ := client("status"); !strings.Contains(out, `"alt":"paused-focus"`) {
		t.Fatalf("status after togglepause = %q, want paused-focus", out)
	}
	if _, err := client("skip"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if _, err := client("cancel"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := client("skip"); !errors.Is(err, timer.ErrNoTimerExisting) {
		t.Fatalf("skip on idle error = %v, want ErrNoTimerExisting", err)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
