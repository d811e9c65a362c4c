package opcontrol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/antongulenko/liftbot/drive"
	"github.com/antongulenko/liftbot/lift"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeRobot struct {
	input    Input
	position int

	drive  []drive.WheelPowers
	lift   []lift.Powers
	resets int

	positionErr error
	driveErr    error

	// Called on every Read, after the input is taken
	onRead func()
}

func (r *fakeRobot) Read() Input {
	in := r.input
	if r.onRead != nil {
		r.onRead()
	}
	return in
}

func (r *fakeRobot) SetDrive(powers drive.WheelPowers) error {
	r.drive = append(r.drive, powers)
	return r.driveErr
}

func (r *fakeRobot) SetLift(powers lift.Powers) error {
	r.lift = append(r.lift, powers)
	return nil
}

func (r *fakeRobot) Position() (int, error) {
	return r.position, r.positionErr
}

func (r *fakeRobot) ResetPosition() error {
	r.resets++
	r.position = 0
	return nil
}

func (r *fakeRobot) lastDrive() drive.WheelPowers {
	return r.drive[len(r.drive)-1]
}

func (r *fakeRobot) lastLift() lift.Powers {
	return r.lift[len(r.lift)-1]
}

type testSuite struct {
	t *testing.T
	*require.Assertions

	robot *fakeRobot
	loop  *Loop
}

func (suite *testSuite) T() *testing.T {
	return suite.t
}

func (suite *testSuite) SetT(t *testing.T) {
	suite.t = t
	suite.Assertions = require.New(t)
}

func (s *testSuite) SetupTest() {
	s.robot = &fakeRobot{position: 500}
	loop := DefaultLoop
	loop.Period = time.Millisecond
	loop.Inputs = s.robot
	loop.Drive = s.robot
	loop.Lift = s.robot
	loop.Encoder = s.robot
	s.loop = &loop
	s.NoError(s.loop.Start())
}

func TestLoop(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) TestStartHoldsCurrentPosition() {
	s.Equal(500, s.loop.LiftTarget())
	s.loop.Step()
	s.Equal(lift.Hold, s.loop.LiftMode())
	s.Equal(lift.Powers{}, s.robot.lastLift())
	s.Equal(drive.WheelPowers{}, s.robot.lastDrive())
}

func (s *testSuite) TestStartFailsWithoutEncoder() {
	s.robot.positionErr = errors.New("no sensor")
	s.Error(s.loop.Start())
}

func (s *testSuite) TestDrive() {
	s.robot.input = Input{Forward: 127}
	s.loop.Step()
	s.Equal(drive.Holonomic(127, 0, 0), s.robot.lastDrive())

	s.robot.input = Input{Forward: 20, Strafe: -60, Rotate: 90}
	s.loop.Step()
	s.Equal(drive.Holonomic(20, -60, 90), s.robot.lastDrive())
}

func (s *testSuite) TestDifferentialDrive() {
	s.robot.input = Input{Forward: 127, Left: 50, Right: -100, Differential: true}
	s.loop.Step()
	s.Equal(drive.Differential(50, -100), s.robot.lastDrive())
}

func (s *testSuite) TestHoldCorrectsSag() {
	s.robot.position = 400
	s.loop.Step()
	s.Equal(lift.Split(70), s.robot.lastLift())
	s.Equal(500, s.loop.LiftTarget())
}

func (s *testSuite) TestManualOverride() {
	s.robot.input = Input{LiftUp: true}
	s.robot.position = 520
	s.loop.Step()
	s.Equal(lift.Manual, s.loop.LiftMode())
	s.Equal(lift.Split(127), s.robot.lastLift())
	s.Equal(520, s.loop.LiftTarget())

	s.robot.input = Input{LiftDown: true}
	s.robot.position = 510
	s.loop.Step()
	s.Equal(lift.Split(-127), s.robot.lastLift())
	s.Equal(510, s.loop.LiftTarget())

	// Both buttons: no power, but the target still follows
	s.robot.input = Input{LiftUp: true, LiftDown: true}
	s.robot.position = 505
	s.loop.Step()
	s.Equal(lift.Manual, s.loop.LiftMode())
	s.Equal(lift.Powers{}, s.robot.lastLift())
	s.Equal(505, s.loop.LiftTarget())

	// Released: hold where it stopped
	s.robot.input = Input{}
	s.loop.Step()
	s.Equal(lift.Hold, s.loop.LiftMode())
	s.Equal(lift.Powers{}, s.robot.lastLift())
}

// The reset moves the zero point but keeps the old target, so the lift is driven towards
// the stale target relative to the new zero on the next hold cycle.
func (s *testSuite) TestResetKeepsStaleTarget() {
	s.robot.input = Input{LiftReset: true}
	s.loop.Step()
	s.Equal(1, s.robot.resets)
	s.Equal(500, s.loop.LiftTarget())
	s.Equal(lift.Split(88), s.robot.lastLift())
}

func (s *testSuite) TestResetDuringManual() {
	s.robot.input = Input{LiftReset: true, LiftDown: true}
	s.loop.Step()
	s.Equal(1, s.robot.resets)
	s.Equal(0, s.loop.LiftTarget(), "manual mode syncs the target to the new zero")

	s.robot.input = Input{}
	s.loop.Step()
	s.Equal(lift.Powers{}, s.robot.lastLift())
}

func (s *testSuite) TestEncoderFailureStopsHold() {
	s.robot.position = 400
	s.loop.Step()
	s.Equal(lift.Split(70), s.robot.lastLift())

	s.robot.positionErr = errors.New("i2c timeout")
	s.robot.input = Input{Forward: 60}
	s.loop.Step()
	s.Len(s.robot.drive, 2)
	s.Len(s.robot.lift, 2)
	s.Equal(lift.Powers{}, s.robot.lastLift(), "no position, no hold power")
	s.Equal(lift.Hold, s.loop.LiftMode())
	s.Equal(500, s.loop.LiftTarget())
}

func (s *testSuite) TestEncoderFailureKeepsManualOverride() {
	s.robot.position = 400
	s.loop.Step()
	s.robot.positionErr = errors.New("i2c timeout")

	s.robot.input = Input{LiftDown: true}
	for i := 0; i < 50; i++ {
		s.loop.Step()
	}
	s.Len(s.robot.lift, 51)
	s.Equal(lift.Split(-127), s.robot.lastLift())
	s.Equal(lift.Manual, s.loop.LiftMode())
	s.Equal(500, s.loop.LiftTarget(), "the target is not resynced without a position")

	s.robot.input = Input{LiftUp: true}
	s.loop.Step()
	s.Equal(lift.Split(127), s.robot.lastLift())

	s.robot.input = Input{LiftUp: true, LiftDown: true}
	s.loop.Step()
	s.Equal(lift.Powers{}, s.robot.lastLift())

	// Once the sensor is back, holding continues at the old target
	s.robot.positionErr = nil
	s.robot.input = Input{}
	s.loop.Step()
	s.Equal(lift.Split(70), s.robot.lastLift())
}

func (s *testSuite) TestStartRejectsInvalidGain() {
	for _, gain := range []float64{0, -0.5} {
		s.loop.LiftGain = gain
		s.Error(s.loop.Start(), "gain %v", gain)
	}
	s.loop.LiftGain = 0.1
	s.NoError(s.loop.Start())
	s.robot.position = 400
	s.loop.Step()
	s.Equal(lift.Split(10), s.robot.lastLift())
}

func (s *testSuite) TestDriveFailureStillControlsLift() {
	s.robot.driveErr = errors.New("bus error")
	s.loop.Step()
	s.Len(s.robot.lift, 1)
}

func (s *testSuite) TestRunUntilCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reads := 0
	s.robot.input = Input{Forward: 127, LiftUp: true}
	s.robot.onRead = func() {
		reads++
		if reads == 5 {
			cancel()
		}
	}
	s.robot.position = 500
	s.NoError(s.loop.Run(ctx))
	s.Equal(uint64(5), s.loop.Cycles())

	// Every cycle writes both motor groups, plus the final stop
	s.Len(s.robot.drive, 6)
	s.Len(s.robot.lift, 6)
	s.Equal(drive.WheelPowers{}, s.robot.lastDrive())
	s.Equal(lift.Powers{}, s.robot.lastLift())
	s.Equal(drive.Holonomic(127, 0, 0), s.robot.drive[4])
}

func (s *testSuite) TestRunRestartsSession() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.robot.position = 800
	s.NoError(s.loop.Run(ctx))
	s.Equal(uint64(0), s.loop.Cycles())
	s.Equal(800, s.loop.LiftTarget())
	s.Equal(drive.WheelPowers{}, s.robot.lastDrive())

	// A new session starts from the current position again
	s.robot.position = 300
	s.NoError(s.loop.Run(ctx))
	s.Equal(300, s.loop.LiftTarget())
}
