package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vle-project/devskernel/config"
	"github.com/vle-project/devskernel/examples/genctr"
	"github.com/vle-project/devskernel/kernel"
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/kmetrics"
	"github.com/vle-project/devskernel/sink/linesink"
)

var (
	configPath string
	watchFlag  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation described by a config file",
	Run: func(cmd *cobra.Command, args []string) {
		logrus.SetLevel(parseLogLevel())
		if err := runSimulation(configPath, watchFlag); err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "experiment.yaml", "Path to the experiment config file")
	runCmd.Flags().BoolVar(&watchFlag, "watch", false, "Watch the config file and log when it changes (reloaded views are not applied to the running simulation)")
}

func runSimulation(path string, watch bool) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	logrus.Infof("loaded config %s (version %s): %d model(s), %d connection(s), %d view(s)",
		path, cfg.Version, len(cfg.Models), len(cfg.Connections), len(cfg.Views))

	co := kernel.NewCoordinator(genctr.Factory, logrus.StandardLogger())
	co.SetMetrics(kmetrics.NewCollector(prometheus.NewRegistry()))
	co.SetHorizon(devstime.New(cfg.Horizon))
	if cfg.Horizon > 0 {
		logrus.Infof("experiment horizon: %g", cfg.Horizon)
	}

	sinks := make(map[string]kernel.Stream, len(cfg.Views))
	for _, v := range cfg.Views {
		sinks[v.ID] = linesink.New(os.Stdout)
	}
	if _, err := config.Build(co, cfg, sinks); err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	var watcher *config.Watcher
	if watch {
		watcher, err = config.NewWatcher(path, logrus.StandardLogger())
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	ctx := context.Background()
	for {
		t, err := co.Step(ctx)
		if err != nil {
			return err
		}
		if t.IsInfinite() {
			break
		}
		if watcher != nil {
			if pending := watcher.TakePending(); pending != nil {
				logrus.Info("config changed; view additions require a restart in this build")
			}
		}
	}
	return co.Finish()
}
