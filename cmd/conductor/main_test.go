package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunEnsembleExecutesSingleStepFlowAndPrintsOutput(t *testing.T) {
	dir := t.TempDir()

	ensemblePath := filepath.Join(dir, "greet.yaml")
	yamlDoc := `
name: greet
flow:
  - agent: tools
    input:
      tool: uppercase
      args:
        text: "${input.text}"
`
	if err := os.WriteFile(ensemblePath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("writing ensemble file: %v", err)
	}

	inputPath := filepath.Join(dir, "input.json")
	if err := os.WriteFile(inputPath, []byte(`{"text": "hi"}`), 0o644); err != nil {
		t.Fatalf("writing input file: %v", err)
	}

	if err := runEnsemble(context.Background(), ensemblePath, inputPath, "error"); err != nil {
		t.Fatalf("runEnsemble returned error: %v", err)
	}
}

func TestRunEnsembleRejectsMissingFile(t *testing.T) {
	if err := runEnsemble(context.Background(), "/nonexistent/ensemble.yaml", "", "error"); err == nil {
		t.Fatal("expected an error for a missing ensemble file")
	}
}

func TestLoadInputDefaultsToEmptyMap(t *testing.T) {
	v, err := loadInput("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 0 {
		t.Fatalf("expected empty map, got %#v", v)
	}
}
