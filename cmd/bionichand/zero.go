package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gwillem/bionichand/pkg/hand"
	"github.com/gwillem/bionichand/pkg/servo"
)

type ZeroCommand struct {
	ID         int     `long:"id" description:"Servo ID to zero (default: all servos of the hand)"`
	Speed      float64 `long:"speed" default:"50" description:"Speed in percent"`
	Calibrated bool    `long:"calibrated" description:"Use the recorded finger centres instead of the profile centre"`
	Port       string  `long:"port" description:"Serial port (default: from config)"`
}

type zeroTarget struct {
	id     int
	center int
}

// servoZeroer is the part of *servo.Controller used to zero servos.
type servoZeroer interface {
	SetSpeed(ctx context.Context, id int, percent float64) error
	MoveAngleWithCenter(ctx context.Context, id int, degree float64, center int) error
}

func (c *ZeroCommand) Execute(args []string) error {
	var config *hand.Config
	if c.Port != "" && !hand.ConfigExistsAt(opts.Config) {
		config = hand.DefaultConfig()
	} else {
		config = loadConfig()
	}
	if c.Port != "" {
		config.Port = c.Port
	}

	profile, err := config.ServoProfile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	targets, err := zeroTargets(config.Calibration, profile, c.ID, c.Calibrated)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger()
	defer logger.Sync()

	ctrl, err := servo.New(servo.Config{
		Port:     config.Port,
		BaudRate: config.BaudRate,
		Profile:  profile,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to hand: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := zeroServos(ctx, ctrl, targets, c.Speed); err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("%d servo(s) at 0 degrees", len(targets))))
	return nil
}

// zeroTargets picks the servos to zero and the centre each is zeroed around.
// id 0 selects every servo of the calibration.
func zeroTargets(cal hand.Calibration, profile servo.Profile, id int, calibrated bool) ([]zeroTarget, error) {
	centerOf := func(id int) int {
		if !calibrated {
			return profile.Center
		}
		name, right, ok := cal.ByID(id)
		if !ok {
			return profile.Center
		}
		if right {
			return cal[name].RightCenter
		}
		return cal[name].LeftCenter
	}

	if id != 0 {
		if calibrated {
			if _, _, ok := cal.ByID(id); !ok {
				return nil, fmt.Errorf("servo %d has no recorded centre", id)
			}
		}
		return []zeroTarget{{id: id, center: centerOf(id)}}, nil
	}

	ids := cal.ServoIDs()
	targets := make([]zeroTarget, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, zeroTarget{id: id, center: centerOf(id)})
	}
	return targets, nil
}

func zeroServos(ctx context.Context, s servoZeroer, targets []zeroTarget, speed float64) error {
	for _, t := range targets {
		if err := s.SetSpeed(ctx, t.id, speed); err != nil {
			return fmt.Errorf("servo %d speed: %w", t.id, err)
		}
		if err := s.MoveAngleWithCenter(ctx, t.id, 0, t.center); err != nil {
			return fmt.Errorf("servo %d move: %w", t.id, err)
		}
	}
	return nil
}
