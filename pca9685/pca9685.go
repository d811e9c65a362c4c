package pca9685

import (
	"fmt"
	"math"
	"time"
)

const (
	MODE1 = byte(iota)
	MODE2

	// The I2C addresses are stored in the 7 MSBs. Addresses must be left-shifted once.
	SUBADR1
	SUBADR2
	SUBADR3
	ALLCALLADR

	// Every output has 4 registers: ON_L, ON_H, OFF_L, OFF_H
	LED0 = byte(0x06)

	NUM_OUTPUTS = 16
)

const (
	ALL_ON_L = byte(0xFA + iota)
	ALL_ON_H
	ALL_OFF_L
	ALL_OFF_H
	PRE_SCALE // Only settable in SLEEP mode. Default value: 0x30
	TEST_MODE

	ALL_LEDS = ALL_ON_L
)

// Default values all zero, except ALLCALL and SLEEP
const (
	MODE1_ALLCALL = byte(1 << iota) // 1: Respond to ALLCALL address
	MODE1_SUB3                      // 1: Respond to SUB3 address
	MODE1_SUB2                      // 1: Respond to SUB2 address
	MODE1_SUB1                      // 1: Respond to SUB1 address
	MODE1_SLEEP                     // 0: normal mode 1: oscillator off, low power mode
	MODE1_AI                        // 1: Register auto increment
	MODE1_EXTCLK                    // 1: use EXTCLK pin as clock source
	MODE1_RESTART                   // Write 1: wake up from SLEEP
)

// Default values all zero, except OUTDRV
const (
	MODE2_OUTNE0 = byte(1 << iota)
	MODE2_OUTNE1
	MODE2_OUTDRV // 0: outputs are open drain 1: outputs are totem pole
	MODE2_OCH    // 0: output change on STOP 1: output change on ACK
	MODE2_INVRT  // 1: invert output logic
)

const (
	ADDRESS     = byte(0x40) // 0100 0000
	ADDRESS_MAX = byte(0x7F) // 0111 1111

	BYTE_PER_OUTPUT  = 4
	TIMER_MAX        = 4095
	TIMER_RESOLUTION = TIMER_MAX + 1

	FULL_ON_BIT  = 0x10 // bit 4 of LEDn_ON_H.
	FULL_OFF_BIT = 0x10 // bit 4 of LEDn_OFF_H. Takes precedence over the FULL_ON_BIT.

	FREQ_MIN          = 23.84185791
	FREQ_MAX          = 1525.87890625
	FREQ_MIN_PRESCALE = byte(0xFF)
	FREQ_MAX_PRESCALE = byte(0x03) // Minimum value asserted by hardware

	INTERNAL_OSCILLATOR = 25000000 // 25 MHz
)

// Output returns the first register of the given output.
func Output(output byte) byte {
	return LED0 + output*BYTE_PER_OUTPUT
}

func ValuesInto(onTime float64, target []byte) {
	target[0], target[1], target[2], target[3] = ValuesDelayed(0, onTime)
}

// delay and onTime must be in [0; 1]
func ValuesDelayed(delayTime, onTime float64) (onL, onH, offL, offH byte) {
	if delayTime < 0 || delayTime > 1 || onTime < 0 || onTime > 1 {
		panic(fmt.Sprintf("Invalid timer values delay=%v onTime=%v", delayTime, onTime))
	}
	delayCount := round(delayTime*TIMER_RESOLUTION - 1)
	onCount := round(onTime * TIMER_RESOLUTION) // The onCount is added to delayCount, so the -1 correction is not required anymore
	if delayTime == 0 {
		delayCount = 0
		if onCount > 0 {
			onCount-- // Apply -1 correction since delayCount is zero
		}
	}
	if onTime == 0 {
		onCount = 0
	}

	on := delayCount
	off := on + onCount
	if off > TIMER_RESOLUTION {
		// Because of the delay, the first on-time is pushed into the second PWM cycle, and must be corrected
		off -= TIMER_RESOLUTION
	}
	onL, onH = byte(on), byte(on>>8)
	offL, offH = byte(off), byte(off>>8)
	return
}

func round(f float64) int {
	return int(math.Floor(f + .5))
}

func FullOffValuesInto(target []byte) {
	target[0], target[1], target[2], target[3] = 0, 0, 0, FULL_OFF_BIT
}

func PrescalerExternalClock(externalOscillator float64, frequency float64) byte {
	v := externalOscillator / (float64(TIMER_RESOLUTION) * frequency)
	return byte(round(v)) - 1
}

func Prescaler(frequency float64) byte {
	return PrescalerExternalClock(INTERNAL_OSCILLATOR, frequency)
}

// Init puts the device to sleep, sets the PWM frequency and wakes it up with register auto increment enabled.
func Init(write func(data ...byte) error, frequency float64) error {
	if frequency < FREQ_MIN || frequency > FREQ_MAX {
		return fmt.Errorf("PWM frequency %vHz out of range (%v - %v)", frequency, FREQ_MIN, FREQ_MAX)
	}
	if err := write(MODE1, MODE1_ALLCALL|MODE1_SLEEP); err != nil {
		return err
	}
	if err := write(PRE_SCALE, Prescaler(frequency)); err != nil {
		return err
	}
	return write(MODE1, MODE1_ALLCALL|MODE1_AI)
}

// Pulse widths understood by RC-style motor controllers: full reverse, stop and full forward
const (
	PulseMin     = 1000 * time.Microsecond
	PulseNeutral = 1500 * time.Microsecond
	PulseMax     = 2000 * time.Microsecond

	MotorFrequency = 50
)

// MotorOnTime converts a motor power in [-maxPower, maxPower] to the PWM on-time fraction
// of an RC pulse at the given frequency. Larger powers are clamped.
func MotorOnTime(power, maxPower int, frequency float64) float64 {
	if power > maxPower {
		power = maxPower
	} else if power < -maxPower {
		power = -maxPower
	}
	pulse := float64(PulseNeutral) + float64(power)/float64(maxPower)*float64(PulseMax-PulseNeutral)
	period := float64(time.Second) / frequency
	return pulse / period
}

// PwmOutput remembers the values last written, so an update only writes the changed range of outputs.
type PwmOutput struct {
	CurrentState   []float64
	OptimizeUpdate bool
}

// Update returns the register address and values to write, or nil if nothing changed.
func (m *PwmOutput) Update(firstPwmOutput byte, newState []float64) []byte {
	if len(m.CurrentState) != len(newState) {
		m.CurrentState = make([]float64, len(newState))
		m.OptimizeUpdate = false
	}
	numPwmOutputs := len(newState)

	// Compute smallest possible range of values to be updated
	updateFrom := 0
	updateTo := numPwmOutputs
	if m.OptimizeUpdate {
		for updateFrom < numPwmOutputs && m.CurrentState[updateFrom] == newState[updateFrom] {
			updateFrom++
		}
		if updateFrom == numPwmOutputs {
			// The desired state is already deployed
			return nil
		}
		for m.CurrentState[updateTo-1] == newState[updateTo-1] {
			updateTo--
		}
	}
	copy(m.CurrentState, newState)
	m.OptimizeUpdate = true
	numChanges := updateTo - updateFrom

	pwmValues := make([]byte, BYTE_PER_OUTPUT*numChanges)
	for i, val := range newState[updateFrom:updateTo] {
		ValuesInto(val, pwmValues[BYTE_PER_OUTPUT*i:])
	}
	return append([]byte{firstPwmOutput + byte(updateFrom)*BYTE_PER_OUTPUT}, pwmValues...)
}

// Invalidate forces the next Update to write all outputs.
func (m *PwmOutput) Invalidate() {
	m.OptimizeUpdate = false
}
