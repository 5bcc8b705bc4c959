package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCmd runs the root command with the given arguments and returns
// captured stdout and any error.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	// restore stdout
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	return buf.String(), err
}

// writeConfig writes content to a config file in a temp directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	output, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(output, "sensorpoll dev") {
		t.Errorf("output = %q, want version line", output)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		if _, err := newLogger(level); err != nil {
			t.Errorf("newLogger(%q) error = %v", level, err)
		}
	}

	if _, err := newLogger("loud"); err == nil {
		t.Error("newLogger(loud) expected error, got nil")
	}
}

func TestRunServe_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
sensors:
  - name: Tank
    type: w1therm
`)

	_, err := executeCmd(t, "serve", "-c", configPath)
	if err == nil {
		t.Fatal("serve command expected error for invalid config, got nil")
	}
	if !strings.Contains(err.Error(), "sensorSerial must be specified") {
		t.Errorf("error = %v, want adapter check failure", err)
	}
}

func TestRunServe_InvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
sensors:
  - name: Tank
    type: w1therm
    sensorSerial: 28-1
`)

	_, err := executeCmd(t, "serve", "-c", configPath, "--log-level", "loud")
	if err == nil {
		t.Fatal("serve command expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("error = %v", err)
	}

	// flags persist on the shared root command
	_ = serveCmd.Flags().Set("log-level", "info")
}
