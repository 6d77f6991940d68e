package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/batch"
	"github.com/danielpatrickdp/behavior-harness/internal/config"
	"github.com/danielpatrickdp/behavior-harness/internal/events"
	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/results"
	"github.com/danielpatrickdp/behavior-harness/internal/simulator"
)

// #region main
func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region app
// app carries the settings shared by every subcommand.
type app struct {
	settings  config.Settings
	envConfig string
	imageW    int
	imageH    int
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "behavior",
		Short:         "Segment BEHAVIOR demos, derive action primitives and run batch replays.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.LoadSettings()
			if err != nil {
				return err
			}
			a.settings = s
			return logging.Setup(s.LogLevel, s.LogFormat)
		},
	}
	root.PersistentFlags().StringVar(&a.envConfig, "env-config", "", "YAML environment config passed to the simulator")
	root.PersistentFlags().IntVar(&a.imageW, "image-width", 1280, "renderer image width")
	root.PersistentFlags().IntVar(&a.imageH, "image-height", 720, "renderer image height")

	root.AddCommand(
		a.segmentCmd(),
		a.segmentBatchCmd(),
		a.replayCmd(),
		a.replayBatchCmd(),
		a.metricsBatchCmd(),
		a.manifestCmd(),
		a.planCmd(),
		a.apReplayCmd(),
		a.apReplayBatchCmd(),
		a.benchmarkCmd(),
	)
	return root
}

func (a *app) loadEnvConfig() (config.EnvConfig, error) {
	if a.envConfig == "" {
		return config.EnvConfig{}, nil
	}
	return config.LoadEnvConfig(a.envConfig)
}

func (a *app) simulator() (*simulator.Client, error) {
	return simulator.NewClient(a.settings.SimulatorAddr)
}

func (a *app) openOptions(saveReplay bool) (simulator.OpenOptions, error) {
	cfg, err := a.loadEnvConfig()
	if err != nil {
		return simulator.OpenOptions{}, err
	}
	return simulator.OpenOptions{EnvConfig: cfg, ImageWidth: a.imageW, ImageHeight: a.imageH, SaveReplay: saveReplay}, nil
}

// store opens the results store, or returns nil when recording is off.
func (a *app) store(record bool) (*results.Store, error) {
	if !record {
		return nil, nil
	}
	return results.NewStore(a.settings.ResultsDriver, a.settings.ResultsDSN)
}

// runner builds a batch runner with the shared store and publisher. The
// returned cleanup closes both. configure adjusts how demos are opened.
func (a *app) runner(ctx context.Context, kind string, record bool, configure ...func(*simulator.OpenOptions)) (*batch.Runner, func(), error) {
	opts, err := a.openOptions(true)
	if err != nil {
		return nil, nil, err
	}
	for _, fn := range configure {
		fn(&opts)
	}
	sim, err := a.simulator()
	if err != nil {
		return nil, nil, err
	}
	st, err := a.store(record)
	if err != nil {
		sim.Close()
		return nil, nil, err
	}
	pub := a.publisher(ctx)
	r := &batch.Runner{Kind: kind, Open: sim.Opener(opts), Publisher: pub}
	if st != nil {
		r.Store = st
	}
	cleanup := func() {
		pub.Close()
		if st != nil {
			st.Close()
		}
		sim.Close()
	}
	return r, cleanup, nil
}

// publisher publishes progress over MQTT when a broker is configured and
// falls back to the log.
func (a *app) publisher(ctx context.Context) events.Publisher {
	if a.settings.MQTTURL == "" {
		return events.LogPublisher{}
	}
	p, err := events.NewMQTTPublisher(a.settings.MQTTURL, "behavior-"+uuid.NewString()[:8], a.settings.MQTTTopic)
	if err != nil {
		logging.Warnf(ctx, "mqtt unavailable at %s, logging progress instead: %v", a.settings.MQTTURL, err)
		return events.LogPublisher{}
	}
	return p
}

// #endregion app

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
