package joystick

import (
	"context"
	"testing"
	"time"

	"github.com/antongulenko/liftbot/opcontrol"
	"github.com/splace/joysticks"
	"github.com/stretchr/testify/assert"
)

func TestAxisValue(t *testing.T) {
	a := assert.New(t)
	test := func(axis Axis, x, y float32, expected int) {
		a.Equal(expected, axis.Value(x, y), "axis %+v at %v/%v", axis, x, y)
	}

	plain := Axis{}
	test(plain, 0, 0, 0)
	test(plain, 1, 0, 127)
	test(plain, -1, 0, -127)
	test(plain, 0.5, 0, 64)
	test(plain, -0.5, 0, -64)
	test(plain, 0, 1, 0)

	vertical := Axis{UseY: true, Invert: true}
	test(vertical, 0.3, -1, 127)
	test(vertical, 0.3, 1, -127)
	test(vertical, 0.3, 0.25, -32)

	// Slightly out of range positions are clamped
	test(plain, 1.1, 0, 127)
	test(plain, -1.1, 0, -127)

	zeroBand := Axis{ZeroFrom: -0.15, ZeroTo: 0.1}
	test(zeroBand, -0.1, 0, 0)
	test(zeroBand, 0.05, 0, 0)
	test(zeroBand, 0.2, 0, 25)
	test(zeroBand, -0.2, 0, -25)

	// The zero band is applied after inverting
	invertedBand := Axis{Invert: true, ZeroFrom: -0.15, ZeroTo: 0.1}
	test(invertedBand, 0.12, 0, 0)
	test(invertedBand, -0.12, 0, 15)
}

func TestGamepadMoves(t *testing.T) {
	a := assert.New(t)
	g := &Gamepad{
		Forward:  DefaultGamepad.Forward,
		Strafe:   DefaultGamepad.Strafe,
		Rotate:   DefaultGamepad.Rotate,
		TankLeft: DefaultGamepad.TankLeft,
	}
	hats := g.axisBindings()
	a.Len(hats, 2)
	a.Len(hats[DefaultGamepad.Forward.Hat], 3)
	a.Len(hats[DefaultGamepad.Rotate.Hat], 2)

	// Right stick pushed fully up
	g.handleMove(hats[DefaultGamepad.Forward.Hat], 0, -1)
	// Left stick pushed fully right and half up
	g.handleMove(hats[DefaultGamepad.Rotate.Hat], 1, -0.5)

	a.Equal(opcontrol.Input{
		Forward: 127,
		Right:   127,
		Strafe:  0,
		Rotate:  -127,
		Left:    64,
	}, g.Read())
}

func TestGamepadButtons(t *testing.T) {
	a := assert.New(t)
	g := &Gamepad{}
	g.setButton(&g.state.LiftUp, true)
	g.setButton(&g.state.LiftReset, true)
	a.Equal(opcontrol.Input{LiftUp: true, LiftReset: true}, g.Read())

	g.setButton(&g.state.LiftUp, false)
	g.setButton(&g.state.LiftDown, true)
	a.Equal(opcontrol.Input{LiftDown: true, LiftReset: true}, g.Read())
}

func TestGamepadToggleDriveMode(t *testing.T) {
	a := assert.New(t)
	g := &Gamepad{}
	a.False(g.Read().Differential)
	g.toggleDriveMode()
	a.True(g.Read().Differential)
	g.toggleDriveMode()
	a.False(g.Read().Differential)
}

func TestGamepadDisconnectMakesInputNeutral(t *testing.T) {
	a := assert.New(t)
	g := &Gamepad{
		Forward:  DefaultGamepad.Forward,
		Strafe:   DefaultGamepad.Strafe,
		Rotate:   DefaultGamepad.Rotate,
		TankLeft: DefaultGamepad.TankLeft,
	}
	hats := g.axisBindings()
	done := make(chan struct{})
	moved := make(chan joysticks.Event)
	pressed := make(chan joysticks.Event)
	released := make(chan joysticks.Event)
	toggle := make(chan joysticks.Event)
	g.notifyMove(moved, hats[DefaultGamepad.Forward.Hat], done)
	g.notifyButton(pressed, released, &g.state.LiftUp, done)
	g.notifyToggle(toggle, done)

	// Every second send returns only after the first event was applied
	for i := 0; i < 2; i++ {
		moved <- joysticks.CoordsEvent{X: 0, Y: -1}
		pressed <- nil
	}
	g.toggleDriveMode()
	a.Equal(opcontrol.Input{Forward: 127, Right: 127, LiftUp: true, Differential: true}, g.Read())

	finished := make(chan struct{})
	go func() {
		g.disconnect(done)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("event handlers still running after disconnect")
	}
	a.Equal(opcontrol.Input{Differential: true}, g.Read(), "sticks centered, buttons released, drive mode kept")

	for _, c := range []chan joysticks.Event{moved, pressed, released, toggle} {
		select {
		case c <- nil:
			t.Error("event delivered after disconnect")
		default:
		}
	}
}

func TestGamepadResetInput(t *testing.T) {
	a := assert.New(t)
	g := &Gamepad{}
	g.setButton(&g.state.LiftDown, true)
	g.setButton(&g.state.LiftReset, true)
	g.handleMove([]axisBinding{{axis: &Axis{}, target: &g.state.Strafe}}, 1, 0)
	a.Equal(opcontrol.Input{Strafe: 127, LiftDown: true, LiftReset: true}, g.Read())

	g.resetInput()
	a.Equal(opcontrol.Input{}, g.Read())
}

func TestGamepadRunWithoutDevice(t *testing.T) {
	a := assert.New(t)
	g := &Gamepad{Index: 200, RetryDuration: time.Millisecond, Differential: true}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	finished := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
	a.Equal(opcontrol.Input{Differential: true}, g.Read())
}
