package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func() string
	}{
		{name: "version", fn: getVersion},
		{name: "commit", fn: getCommit},
		{name: "date", fn: getDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Falls back to "(devel)" or "unknown" without ldflags or VCS info.
			if tt.fn() == "" {
				t.Errorf("get%s returned empty string", tt.name)
			}
		})
	}
}

func TestGetCommitIsShort(t *testing.T) {
	t.Parallel()

	if c := getCommit(); c != "unknown" && len(c) > 7 {
		t.Errorf("expected at most 7 characters, got %q", c)
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command outputs version info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		c := NewVersionCmd()
		c.SetOut(&buf)
		c.Run(c, nil)

		output := buf.String()
		for _, want := range []string{"bfscrawler version ", "commit: ", "built: "} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})
}
