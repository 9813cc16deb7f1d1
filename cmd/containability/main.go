// Command containability runs one containability test: it loads an
// experiment config, drops a probe lattice onto the target in a feather
// world, agitates it and reports whether the object holds the probes.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/imaginelab/affordance/capture"
	"github.com/imaginelab/affordance/imagine/containability"
	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/physics/feathersim"
	"github.com/imaginelab/affordance/spatialmath"
)

var logger = golog.NewDevelopmentLogger("containability")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile   string `flag:"0,required,usage=experiment config file"`
	CheckProcess bool   `flag:"check-process,usage=pace steps in wall-clock time"`
	Trace        string `flag:"trace,usage=write probe pose traces to this JSONL file"`
}

// experimentConfig is the JSON experiment description.
type experimentConfig struct {
	TargetSpec     string     `json:"target_spec"`
	TargetPosition [3]float64 `json:"target_position"`
	ProbeSpec      string     `json:"probe_spec"`
	ProbeCount     int        `json:"probe_count"`
	Threshold      float64    `json:"threshold"`
	Steps          int        `json:"steps"`
	Seed           int64      `json:"seed"`
	TraceInterval  int        `json:"trace_interval"`
}

func (c *experimentConfig) Validate(path string) error {
	if c.TargetSpec == "" {
		return errors.Errorf("%s: target_spec is required", path)
	}
	if c.ProbeSpec == "" {
		return errors.Errorf("%s: probe_spec is required", path)
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return errors.Errorf("%s: threshold must be in [0, 1)", path)
	}
	return nil
}

func readExperimentConfig(path string) (*experimentConfig, error) {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read experiment config %s", path)
	}
	var cfg experimentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse experiment config %s", path)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg, err := readExperimentConfig(argsParsed.ConfigFile)
	if err != nil {
		return err
	}
	targetSpec, err := physics.ReadBodySpec(cfg.TargetSpec)
	if err != nil {
		return err
	}
	probeSpec, err := physics.ReadBodySpec(cfg.ProbeSpec)
	if err != nil {
		return err
	}

	var recorder *capture.Recorder
	if argsParsed.Trace != "" {
		traceFile, err := os.Create(argsParsed.Trace)
		if err != nil {
			return errors.Wrap(err, "cannot create trace file")
		}
		defer func() {
			err = multierr.Combine(err, traceFile.Close())
		}()
		recorder = capture.NewRecorder(traceFile, cfg.TraceInterval)
	}

	world := feathersim.NewWorld(logger)
	defer func() {
		err = multierr.Combine(err, world.Close())
	}()

	tester, err := containability.NewTester(
		world,
		targetSpec,
		spatialmath.Pose{
			Point: r3.Vector{
				X: cfg.TargetPosition[0],
				Y: cfg.TargetPosition[1],
				Z: cfg.TargetPosition[2],
			},
			Orientation: spatialmath.NewZeroPose().Orientation,
		},
		containability.Config{
			ProbeSpec:    probeSpec,
			ProbeCount:   cfg.ProbeCount,
			Threshold:    cfg.Threshold,
			Steps:        cfg.Steps,
			Seed:         cfg.Seed,
			CheckProcess: argsParsed.CheckProcess,
			Recorder:     recorder,
		},
		logger,
	)
	if err != nil {
		return err
	}

	result, err := tester.Run(ctx)
	if err != nil {
		return err
	}
	logger.Infow("containability verdict",
		"target", targetSpec.Name,
		"contained", result.Contained,
		"retained", result.RetainedCount,
		"fraction", result.RetainedFraction,
		"settled", result.SettledCount,
	)
	return nil
}
