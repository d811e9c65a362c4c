package joystick

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/antongulenko/liftbot/opcontrol"
	log "github.com/sirupsen/logrus"
	"github.com/splace/joysticks"
)

// Button indexes start at 1. Index 0 disables a button.
var DefaultGamepad = Gamepad{
	Index:         1,
	RetryDuration: 2 * time.Second,
	Forward: Axis{
		Hat:    3,
		UseY:   true,
		Invert: true,
	},
	Strafe: Axis{
		Hat: 3,
	},
	Rotate: Axis{
		Hat:    1,
		Invert: true,
	},
	TankLeft: Axis{
		Hat:    1,
		UseY:   true,
		Invert: true,
	},
	LiftUpButton:      6,
	LiftDownButton:    8,
	LiftResetButton:   1,
	ToggleDriveButton: 10,
}

// Gamepad keeps the latest state of a joystick, updated from its event channels.
// Until a joystick is connected, Read returns neutral input: drive stopped, lift holding.
type Gamepad struct {
	Index         int
	RetryDuration time.Duration

	Forward  Axis
	Strafe   Axis
	Rotate   Axis
	TankLeft Axis // The tank-style right side uses the Forward axis

	LiftUpButton      int
	LiftDownButton    int
	LiftResetButton   int
	ToggleDriveButton int // Long press switches between holonomic and tank-style driving

	// Start with tank-style driving
	Differential bool

	lock     sync.Mutex
	state    opcontrol.Input
	handlers sync.WaitGroup
}

type axisBinding struct {
	axis   *Axis
	target *int
}

func (g *Gamepad) RegisterFlags() {
	g.Forward.RegisterFlags("forward", "driving forward/backward")
	g.Strafe.RegisterFlags("strafe", "strafing left/right")
	g.Rotate.RegisterFlags("rotate", "rotating")
	g.TankLeft.RegisterFlags("tankLeft", "the left side in tank-style driving")
	flag.IntVar(&g.Index, "js", g.Index, "Joystick device index")
	flag.DurationVar(&g.RetryDuration, "js-retry", g.RetryDuration, "Time to retry joystick initialization")
	flag.IntVar(&g.LiftUpButton, "lift-up-button", g.LiftUpButton, "Joystick button index for moving the lift up")
	flag.IntVar(&g.LiftDownButton, "lift-down-button", g.LiftDownButton, "Joystick button index for moving the lift down")
	flag.IntVar(&g.LiftResetButton, "lift-reset-button", g.LiftResetButton, "Joystick button index for resetting the lift position to zero")
	flag.IntVar(&g.ToggleDriveButton, "toggle-drive-button", g.ToggleDriveButton, "Joystick button index that toggles between holonomic and tank-style driving (long press)")
	flag.BoolVar(&g.Differential, "tank-drive", g.Differential, "Start with tank-style driving")
}

func (g *Gamepad) Read() opcontrol.Input {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.state
}

// Run connects the joystick and dispatches its events until the context is cancelled.
// When the joystick disconnects, the input falls back to neutral and the connection is retried.
func (g *Gamepad) Run(ctx context.Context) {
	g.lock.Lock()
	g.state = opcontrol.Input{Differential: g.Differential}
	g.lock.Unlock()

	for ctx.Err() == nil {
		done := make(chan struct{})
		js, err := g.connect(done)
		if err != nil {
			if _, ok := err.(mappingError); ok {
				log.Errorf("%v. Not retrying, operator input stays neutral", err)
				return
			}
			log.Errorf("Failed to setup joystick: %v. Retrying in %v...", err, g.RetryDuration)
			select {
			case <-ctx.Done():
				return
			case <-time.After(g.RetryDuration):
			}
			continue
		}
		log.Printf("Opened joystick device index %v (%v buttons, %v hats)", g.Index, len(js.Buttons), len(js.HatAxes))

		disconnected := make(chan struct{})
		go func() {
			js.ParcelOutEvents()
			close(disconnected)
		}()
		select {
		case <-ctx.Done():
		case <-disconnected:
			log.Warnf("Joystick %v disconnected, operator input set to neutral", g.Index)
		}
		g.disconnect(done)
	}
}

// mappingError means the joystick lacks a configured hat or button. Retrying does not help.
type mappingError struct {
	error
}

func (g *Gamepad) connect(done <-chan struct{}) (*joysticks.HID, error) {
	if !joysticks.DeviceExists(uint8(g.Index)) {
		return nil, fmt.Errorf("No joystick with index %v", g.Index)
	}
	js := joysticks.Connect(g.Index)
	if js == nil {
		return nil, fmt.Errorf("Failed to open joystick with index %v", g.Index)
	}

	hats := g.axisBindings()
	for hat := range hats {
		if !js.HatExists(uint8(hat)) {
			return nil, mappingError{fmt.Errorf("Joystick hat %v does not exist on device %v", hat, g.Index)}
		}
	}
	buttons := map[string]int{
		"lift up":    g.LiftUpButton,
		"lift down":  g.LiftDownButton,
		"lift reset": g.LiftResetButton,
		"drive mode": g.ToggleDriveButton,
	}
	for name, button := range buttons {
		if button != 0 && !js.ButtonExists(uint8(button)) {
			return nil, mappingError{fmt.Errorf("Button for %v (index %v) does not exist on joystick %v", name, button, g.Index)}
		}
	}

	g.resetInput()
	for hat, bindings := range hats {
		g.notifyMove(js.OnMove(uint8(hat)), bindings, done)
	}
	g.subscribeButton(js, g.LiftUpButton, &g.state.LiftUp, done)
	g.subscribeButton(js, g.LiftDownButton, &g.state.LiftDown, done)
	g.subscribeButton(js, g.LiftResetButton, &g.state.LiftReset, done)
	if g.ToggleDriveButton != 0 {
		g.notifyToggle(js.OnLong(uint8(g.ToggleDriveButton)), done)
	}
	return js, nil
}

// disconnect stops the event handlers of one connection and makes the input neutral.
func (g *Gamepad) disconnect(done chan struct{}) {
	close(done)
	g.handlers.Wait()
	g.resetInput()
}

// resetInput centers all sticks and releases all buttons. The drive mode is kept.
func (g *Gamepad) resetInput() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.state = opcontrol.Input{Differential: g.state.Differential}
}

// Each hat is subscribed only once, even when several axes read from it.
func (g *Gamepad) axisBindings() map[int][]axisBinding {
	hats := make(map[int][]axisBinding)
	bind := func(axis *Axis, target *int) {
		hats[axis.Hat] = append(hats[axis.Hat], axisBinding{axis: axis, target: target})
	}
	bind(&g.Forward, &g.state.Forward)
	bind(&g.Forward, &g.state.Right)
	bind(&g.Strafe, &g.state.Strafe)
	bind(&g.Rotate, &g.state.Rotate)
	bind(&g.TankLeft, &g.state.Left)
	return hats
}

func (g *Gamepad) notifyMove(moved chan joysticks.Event, bindings []axisBinding, done <-chan struct{}) {
	g.handlers.Add(1)
	go func() {
		defer g.handlers.Done()
		for {
			select {
			case event := <-moved:
				coords := event.(joysticks.CoordsEvent)
				g.handleMove(bindings, coords.X, coords.Y)
			case <-done:
				return
			}
		}
	}()
}

func (g *Gamepad) handleMove(bindings []axisBinding, x, y float32) {
	g.lock.Lock()
	defer g.lock.Unlock()
	for _, b := range bindings {
		*b.target = b.axis.Value(x, y)
	}
}

func (g *Gamepad) subscribeButton(js *joysticks.HID, button int, target *bool, done <-chan struct{}) {
	if button == 0 {
		return
	}
	g.notifyButton(js.OnClose(uint8(button)), js.OnOpen(uint8(button)), target, done)
}

func (g *Gamepad) notifyButton(pressed, released chan joysticks.Event, target *bool, done <-chan struct{}) {
	g.handlers.Add(1)
	go func() {
		defer g.handlers.Done()
		for {
			select {
			case <-pressed:
				g.setButton(target, true)
			case <-released:
				g.setButton(target, false)
			case <-done:
				return
			}
		}
	}()
}

func (g *Gamepad) notifyToggle(toggle chan joysticks.Event, done <-chan struct{}) {
	g.handlers.Add(1)
	go func() {
		defer g.handlers.Done()
		for {
			select {
			case <-toggle:
				g.toggleDriveMode()
			case <-done:
				return
			}
		}
	}()
}

func (g *Gamepad) setButton(target *bool, pressed bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	*target = pressed
}

func (g *Gamepad) toggleDriveMode() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.state.Differential = !g.state.Differential
	if g.state.Differential {
		log.Println("Setting drive mode to TANK")
	} else {
		log.Println("Setting drive mode to HOLONOMIC")
	}
}
