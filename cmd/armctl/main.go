// Command armctl drives the gantry manipulator through a list of Cartesian
// finger goals and reports how each move resolved: converged, out of the
// workspace, or interrupted.
package main

import (
	"context"
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/imaginelab/affordance/manipulator"
	"github.com/imaginelab/affordance/manipulator/fake"
	"github.com/imaginelab/affordance/spatialmath"
)

var logger = golog.NewDevelopmentLogger("armctl")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile   string `flag:"0,required,usage=goal list config file"`
	CheckProcess bool   `flag:"check-process,usage=pace control steps in wall-clock time"`
}

// goalConfig is one Cartesian finger goal plus an optional gripper action
// run after reaching it.
type goalConfig struct {
	Position [3]float64 `json:"position"`
	RPY      [3]float64 `json:"rpy"`
	Gripper  string     `json:"gripper"` // "open", "close" or empty
}

// driveConfig is the JSON goal-list description.
type driveConfig struct {
	// Home maps joint names to their start positions.
	Home  map[string]float64 `json:"home"`
	Goals []goalConfig       `json:"goals"`
}

func (c *driveConfig) Validate(path string) error {
	if len(c.Goals) == 0 {
		return errors.Errorf("%s: at least one goal is required", path)
	}
	for i, goal := range c.Goals {
		switch goal.Gripper {
		case "", "open", "close":
		default:
			return errors.Errorf("%s: goal %d has unknown gripper action %q", path, i, goal.Gripper)
		}
	}
	return nil
}

func readDriveConfig(path string) (*driveConfig, error) {
	data, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read goal config %s", path)
	}
	var cfg driveConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse goal config %s", path)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg, err := readDriveConfig(argsParsed.ConfigFile)
	if err != nil {
		return err
	}

	arm := fake.NewArm(logger)
	if err := applyHome(arm, cfg.Home); err != nil {
		return err
	}
	ctrl := manipulator.NewController(arm, manipulator.Config{
		CheckProcess: argsParsed.CheckProcess,
	}, logger)

	unreachable := 0
	for i, goal := range cfg.Goals {
		pose := spatialmath.NewPoseFromEuler(
			r3.Vector{X: goal.Position[0], Y: goal.Position[1], Z: goal.Position[2]},
			goal.RPY[0], goal.RPY[1], goal.RPY[2],
		)
		finger, err := ctrl.MoveTo(ctx, pose)
		switch {
		case errors.Is(err, manipulator.ErrOutOfWorkspace):
			unreachable++
			logger.Errorw("goal is out of the workspace",
				"goal", i, "pose", pose.Point, "reached", finger.Point, "error", err)
			continue
		case err != nil:
			return errors.Wrapf(err, "goal %d failed", i)
		}
		logger.Infow("reached goal", "goal", i, "finger", finger.Point)

		switch goal.Gripper {
		case "open":
			err = ctrl.OpenGripper(ctx)
		case "close":
			err = ctrl.CloseGripper(ctx)
		}
		if err != nil {
			return errors.Wrapf(err, "gripper action for goal %d failed", i)
		}
		if goal.Gripper == "close" {
			held, err := ctrl.ObjectInGripper()
			if err != nil {
				return err
			}
			logger.Infow("gripper closed", "goal", i, "holding", held)
		}
	}

	if unreachable > 0 {
		return errors.Errorf("%d of %d goals were out of the workspace", unreachable, len(cfg.Goals))
	}
	return nil
}

// applyHome teleports named joints to their configured start positions.
func applyHome(arm *fake.Arm, home map[string]float64) error {
	byName := map[string]manipulator.Joint{}
	for _, joint := range arm.ArmJoints() {
		byName[joint.Name] = joint
	}
	for _, joint := range arm.GripperJoints() {
		byName[joint.Name] = joint
	}
	for name, position := range home {
		joint, ok := byName[name]
		if !ok {
			return errors.Errorf("home config names unknown joint %q", name)
		}
		if err := arm.SetJointPosition(joint.ID, position); err != nil {
			return err
		}
	}
	return nil
}
