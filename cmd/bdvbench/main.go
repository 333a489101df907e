// Command bdvbench runs the named scenario benchmarks exercising the
// cache, grid, project, and render packages together, the way a real
// viewer's rendering loop would drive them.
package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	profileFlag string
	configFlag  string
)

func main() {
	root := &cobra.Command{
		Use:   "bdvbench",
		Short: "Benchmark harness for the multi-resolution volume rendering pipeline",
	}
	root.PersistentFlags().StringVar(&profileFlag, "profile", string(profileNone), "profiling mode: none, cpu, mem, block, goroutine, mutex, trace")
	root.PersistentFlags().StringVar(&configFlag, "config", "", "path to a YAML scenario config overlaying the defaults")

	scenarioCmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run a named benchmark scenario",
	}
	scenarioCmd.AddCommand(&cobra.Command{
		Use:       "run [name]",
		Short:     "Run one of: adaptive-coarsen, adaptive-refine, cancellation, hierarchical-fill, budget-exhaustion, frame-rollover",
		Args:      cobra.ExactArgs(1),
		ValidArgs: scenarioNames(),
		RunE:      runScenario,
	})
	root.AddCommand(scenarioCmd)

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("bdvbench failed")
	}
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	return names
}

var scenarios = map[string]func(ScenarioConfig, logrus.FieldLogger) error{
	"adaptive-coarsen":   runAdaptiveCoarsen,
	"adaptive-refine":    runAdaptiveRefine,
	"cancellation":       runCancellation,
	"hierarchical-fill":  runHierarchicalFill,
	"budget-exhaustion":  runBudgetExhaustion,
	"frame-rollover":     runFrameRollover,
}

func runScenario(cmd *cobra.Command, args []string) error {
	name := args[0]
	run, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q (run %q to list them)", name, "bdvbench scenario run --help")
	}

	stop := profileOpt(profileFlag).start()
	defer stop()

	cfg := DefaultScenarioConfig()
	if configFlag != "" {
		loaded, err := LoadScenarioConfig(configFlag)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logrus.StandardLogger()
	logger.WithField("scenario", name).Info("starting scenario")
	return run(cfg, logger)
}
