// Package main implements the conductor CLI - a standalone runner for
// ensemble YAML files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ensemble-edge/conductor/agent"
	"github.com/ensemble-edge/conductor/corelog"
	"github.com/ensemble-edge/conductor/ensemble"
	"github.com/ensemble-edge/conductor/notify"
	"github.com/ensemble-edge/conductor/orchestrator"
	"github.com/ensemble-edge/conductor/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		inputPath string
		logLevel  string
	)

	rootCmd := &cobra.Command{
		Use:   "conductor [ensemble.yaml]",
		Short: "Run an ensemble",
		Long:  "Conductor runs a YAML ensemble definition against an optional JSON input and prints its output.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnsemble(cmd.Context(), args[0], inputPath, logLevel)
		},
	}

	rootCmd.Flags().StringVar(&inputPath, "input", "", "Path to a JSON file used as the ensemble's input (default: {}; stdin is not read)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Minimum log level: debug, info, warn, error")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func runEnsemble(ctx context.Context, ensemblePath, inputPath, logLevel string) error {
	yamlBytes, err := os.ReadFile(ensemblePath)
	if err != nil {
		return fmt.Errorf("reading ensemble file: %w", err)
	}

	e, err := ensemble.Parse(yamlBytes)
	if err != nil {
		return fmt.Errorf("parsing ensemble: %w", err)
	}

	input, err := loadInput(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	logger := corelog.NewStandardLogger("conductor/cmd")
	logger.SetLevel(logLevel)

	resolver := agent.NewResolver(envMap(), agent.Dependencies{})
	if err := ensemble.ValidateReferences(e, resolver.AvailableNames()); err != nil {
		return fmt.Errorf("validating agent references: %w", err)
	}

	provider := telemetry.NewProvider("conductor")
	notifier := notify.New(e.Notifications, logger)

	exec := orchestrator.NewExecutor(resolver, notifier, provider, logger, envMap())

	result, err := exec.ExecuteEnsemble(ctx, e, input)
	if err != nil {
		return fmt.Errorf("executing ensemble: %w", err)
	}

	encoded, err := json.MarshalIndent(result.Output, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func loadInput(path string) (interface{}, error) {
	if path == "" {
		return map[string]interface{}{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing input JSON: %w", err)
	}
	return v, nil
}

func envMap() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}
