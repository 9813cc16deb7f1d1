// Command pour runs a pour-spillage sweep: it tips a filled container over
// the target at every configured planar angle and indent depth and prints
// the spill-count matrix with summary statistics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/imaginelab/affordance/capture"
	"github.com/imaginelab/affordance/imagine/pour"
	"github.com/imaginelab/affordance/physics"
	"github.com/imaginelab/affordance/physics/feathersim"
	"github.com/imaginelab/affordance/spatialmath"
)

var logger = golog.NewDevelopmentLogger("pour")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile   string `flag:"0,required,usage=experiment config file"`
	CheckProcess bool   `flag:"check-process,usage=pace steps in wall-clock time"`
	Trace        string `flag:"trace,usage=write content pose traces to this JSONL file"`
}

// experimentConfig is the JSON experiment description.
type experimentConfig struct {
	TargetSpec     string     `json:"target_spec"`
	TargetPosition [3]float64 `json:"target_position"`
	ContainerSpec  string     `json:"container_spec"`
	ContentSpec    string     `json:"content_spec"`
	PourPoint      [3]float64 `json:"pour_point"`
	ContentCount   int        `json:"content_count"`
	Steps          int        `json:"steps"`
	AngleCount     int        `json:"angle_count"`
	IndentCount    int        `json:"indent_count"`
	Seed           int64      `json:"seed"`
	TraceInterval  int        `json:"trace_interval"`
}

func (c *experimentConfig) Validate(path string) error {
	if c.TargetSpec == "" {
		return errors.Errorf("%s: target_spec is required", path)
	}
	if c.ContainerSpec == "" {
		return errors.Errorf("%s: container_spec is required", path)
	}
	if c.ContentSpec == "" {
		return errors.Errorf("%s: content_spec is required", path)
	}
	if c.AngleCount < 0 || c.IndentCount < 0 {
		return errors.Errorf("%s: angle_count and indent_count must be non-negative", path)
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
	containerSpec, err := physics.ReadBodySpec(cfg.ContainerSpec)
	if err != nil {
		return err
	}
	contentSpec, err := physics.ReadBodySpec(cfg.ContentSpec)
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

	tester, err := pour.NewTester(
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
		r3.Vector{X: cfg.PourPoint[0], Y: cfg.PourPoint[1], Z: cfg.PourPoint[2]},
		pour.Config{
			ContainerSpec: containerSpec,
			ContentSpec:   contentSpec,
			ContentCount:  cfg.ContentCount,
			Steps:         cfg.Steps,
			AngleCount:    cfg.AngleCount,
			IndentCount:   cfg.IndentCount,
			Seed:          cfg.Seed,
			CheckProcess:  argsParsed.CheckProcess,
			Recorder:      recorder,
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
	return reportSweep(logger, tester.Angles(), result)
}

// reportSweep prints the spill matrix, one row per planar angle, plus
// min/mean/max spill counts over all trials.
func reportSweep(logger golog.Logger, angles []float64, result pour.Result) error {
	var counts []float64
	for k, row := range result.Spills {
		cells := make([]string, len(row))
		for j, spilled := range row {
			cells[j] = fmt.Sprintf("%3d", spilled)
			counts = append(counts, float64(spilled))
		}
		logger.Infof("angle %5.2f rad: [%s] / %d", angles[k], strings.Join(cells, " "), result.ContentCount)
	}

	min, err := stats.Min(counts)
	if err != nil {
		return errors.Wrap(err, "cannot summarize sweep")
	}
	mean, err := stats.Mean(counts)
	if err != nil {
		return errors.Wrap(err, "cannot summarize sweep")
	}
	max, err := stats.Max(counts)
	if err != nil {
		return errors.Wrap(err, "cannot summarize sweep")
	}
	logger.Infow("spillage summary",
		"trials", len(result.Trials),
		"min", min,
		"mean", mean,
		"max", max,
	)
	return nil
}
