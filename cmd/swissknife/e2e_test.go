package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestCLIJSONOutput(t *testing.T) {
	fixture := t.TempDir()
	input := filepath.Join(fixture, "sample.txt")
	if err := os.WriteFile(input, []byte("abc"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cmd := exec.Command("go", "run", "./cmd/swissknife", "--json", "hash", input)
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+fixture)
	wd, _ := os.Getwd()
	cmd.Dir = filepath.Dir(filepath.Dir(wd))

	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if payload["run_id"] == "" {
		t.Fatalf("expected run_id")
	}
	if payload["status"] != "success" {
		t.Fatalf("expected success, got %v", payload["status"])
	}
	want := "BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"
	if payload["output"] != want {
		t.Fatalf("unexpected digest %v", payload["output"])
	}
}

func TestCLIFailureExitCode(t *testing.T) {
	fixture := t.TempDir()
	cmd := exec.Command("go", "run", "./cmd/swissknife", "--json", "merge", "-o", filepath.Join(fixture, "out.pdf"), filepath.Join(fixture, "only.pdf"))
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+fixture)
	wd, _ := os.Getwd()
	cmd.Dir = filepath.Dir(filepath.Dir(wd))

	out, err := cmd.Output()
	if err == nil {
		t.Fatalf("expected non-zero exit")
	}
	var payload map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if payload["kind"] != "validation" {
		t.Fatalf("expected validation failure, got %v", payload["kind"])
	}
}

func TestExitFor(t *testing.T) {
	if err := exitFor("success", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := exitFor("cancelled", nil).(*exitError); err.code != exitCancelled {
		t.Fatalf("expected %d, got %d", exitCancelled, err.code)
	}
	if err := exitFor("failure", nil).(*exitError); err.code != exitFailure {
		t.Fatalf("expected %d, got %d", exitFailure, err.code)
	}
}
