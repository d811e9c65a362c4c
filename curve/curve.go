// Package curve maps joystick magnitudes to motor power.
//
// Drive motors barely move at small duty cycles, so the table jumps to a usable power right after
// a small dead zone, flattens out over the middle range, and pins the last entries to the maximum.
package curve

const (
	Size     = 128
	MaxPower = Size - 1
)

var table = [Size]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 21, 21, 21, 22, 22, 22, 23, 24, 24,
	25, 25, 25, 25, 26, 27, 27, 28, 28, 28,
	28, 29, 30, 30, 30, 31, 31, 32, 32, 32,
	33, 33, 34, 34, 35, 35, 35, 36, 36, 37,
	37, 37, 37, 38, 38, 39, 39, 39, 40, 40,
	41, 41, 42, 42, 43, 44, 44, 45, 45, 46,
	46, 47, 47, 48, 48, 49, 50, 50, 51, 52,
	52, 53, 54, 55, 56, 57, 57, 58, 59, 60,
	61, 62, 63, 64, 65, 66, 67, 67, 68, 70,
	71, 72, 72, 73, 74, 76, 77, 78, 79, 79,
	80, 81, 83, 84, 84, 86, 86, 87, 87, 88,
	88, 89, 89, 90, 90, 127, 127, 127,
}

// Clamp bounds a value to the legal motor power range.
func Clamp(value int) int {
	if value > MaxPower {
		return MaxPower
	}
	if value < -MaxPower {
		return -MaxPower
	}
	return value
}

// Scale clamps the value and looks up its magnitude, keeping the sign.
func Scale(value int) int {
	value = Clamp(value)
	if value < 0 {
		return -table[-value]
	}
	return table[value]
}

// Table returns a copy of the lookup table.
func Table() [Size]int {
	return table
}
