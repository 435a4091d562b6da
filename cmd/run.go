package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/assetsim/config"
	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/profile"
	"github.com/kilianp07/assetsim/infra/logger"
	"github.com/kilianp07/assetsim/infra/profilecsv"
	"github.com/kilianp07/assetsim/pkg/export"
	"github.com/kilianp07/assetsim/qa/scenarios"
)

var (
	scenarioPath string
	profilePath  string
	outPath      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a scenario file and export the outputs",
	Long: `Replays a scenario through a local engine. The outputs are written as CSV
or JSON depending on the --out extension, or as JSON to stdout.`,
	RunE: runScenario,
}

func init() {
	runCmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario file (yaml)")
	runCmd.Flags().StringVarP(&profilePath, "profile", "p", "", "profile csv, overrides the scenario profile")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (.csv or .json)")
	_ = runCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(runCmd)
}

func runScenario(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}
	log := logger.New("run")

	sc, err := scenarios.Load(scenarioPath)
	if err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	table, err := scenarioProfile(sc, cfg)
	if err != nil {
		return err
	}

	ecfg := cfg.EngineConfig()
	ecfg.TickSeconds = float64(sc.TickSeconds)
	eng := engine.New(ecfg, table, engine.WithLogger(logger.New("engine")))

	res, err := scenarios.Run(background(cmd), eng, sc)
	if err != nil {
		return err
	}
	log.Infof("scenario %s: %d steps, %d failures", sc.Name, len(res.Steps), res.Failures)
	if err := write(res); err != nil {
		return err
	}
	if err := scenarios.Check(sc, res); err != nil {
		return fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return nil
}

func scenarioProfile(sc *scenarios.Scenario, cfg *config.Config) (*profile.Table, error) {
	path := profilePath
	if path == "" && len(sc.Profile) == 0 {
		path = cfg.Simulation.ProfilePath
	}
	if path != "" {
		return profilecsv.Load(path)
	}
	return sc.Table()
}

func write(res *scenarios.Result) error {
	if outPath == "" {
		return export.WriteJSON(os.Stdout, res)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".csv":
		err = export.WriteCSV(f, res.Batches())
	case ".json":
		err = export.WriteJSON(f, res)
	default:
		err = fmt.Errorf("unsupported output format %q", filepath.Ext(outPath))
	}
	if err != nil {
		return err
	}
	return f.Close()
}
