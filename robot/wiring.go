package robot

import (
	"fmt"
	"io/ioutil"

	"github.com/antongulenko/liftbot/pca9685"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Wiring maps every motor to a PWM channel of the motor driver.
type Wiring struct {
	FrontLeft  int `yaml:"front_left"`
	MidLeft    int `yaml:"mid_left"`
	BackLeft   int `yaml:"back_left"`
	FrontRight int `yaml:"front_right"`
	MidRight   int `yaml:"mid_right"`
	BackRight  int `yaml:"back_right"`

	LiftTopLeft     int `yaml:"lift_top_left"`
	LiftBottomLeft  int `yaml:"lift_bottom_left"`
	LiftTopRight    int `yaml:"lift_top_right"`
	LiftBottomRight int `yaml:"lift_bottom_right"`
}

var DefaultWiring = Wiring{
	FrontLeft:  0,
	MidLeft:    1,
	BackLeft:   2,
	FrontRight: 3,
	MidRight:   4,
	BackRight:  5,

	LiftTopLeft:     6,
	LiftBottomLeft:  7,
	LiftTopRight:    8,
	LiftBottomRight: 9,
}

// Drive returns the channels in the order of drive.WheelNames.
func (w Wiring) Drive() [6]int {
	return [6]int{w.FrontLeft, w.MidLeft, w.BackLeft, w.FrontRight, w.MidRight, w.BackRight}
}

func (w Wiring) Lift() [4]int {
	return [4]int{w.LiftTopLeft, w.LiftBottomLeft, w.LiftTopRight, w.LiftBottomRight}
}

func (w Wiring) channels() []int {
	drive, lift := w.Drive(), w.Lift()
	return append(drive[:], lift[:]...)
}

// Validate makes sure every motor has its own channel.
func (w Wiring) Validate() error {
	used := make(map[int]bool)
	for _, channel := range w.channels() {
		if channel < 0 || channel >= pca9685.NUM_OUTPUTS {
			return fmt.Errorf("PWM channel %v out of range (0 - %v)", channel, pca9685.NUM_OUTPUTS-1)
		}
		if used[channel] {
			return fmt.Errorf("PWM channel %v is wired to more than one motor", channel)
		}
		used[channel] = true
	}
	return nil
}

// LoadWiring reads a YAML file overriding the channels of the given wiring.
func LoadWiring(filename string, wiring Wiring) (Wiring, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return wiring, errors.Wrap(err, "failed to read wiring file")
	}
	if err := yaml.UnmarshalStrict(data, &wiring); err != nil {
		return wiring, errors.Wrapf(err, "failed to parse wiring file %v", filename)
	}
	return wiring, wiring.Validate()
}

func (w Wiring) log() {
	data, err := yaml.Marshal(&w)
	if err != nil {
		log.Errorln("Failed to format motor wiring:", err)
		return
	}
	log.Printf("Using motor wiring:\n%s", data)
}
