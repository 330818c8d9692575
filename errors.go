// errors.go
//
// Error taxonomy for the PCF8574 driver.
//
// Two failure modes exist: a pin argument outside 0..7, and a failed I2C
// transaction (including a short read). Every fallible method returns an
// error wrapping one of the sentinels below; the numeric codes are kept
// alongside for callers polling LastError().
//
package pcf8574

import "errors"

// ErrCode is the numeric error slot value reported by LastError().
type ErrCode int

const (
	OK         ErrCode = 0x00
	ErrCodePin ErrCode = 0x81 // pin argument outside 0..7
	ErrCodeI2C ErrCode = 0x82 // I2C transaction failed or short read
)

func (c ErrCode) String() string {
	switch c {
	case OK:
		return "ok"
	case ErrCodePin:
		return "pin out of range"
	case ErrCodeI2C:
		return "i2c error"
	default:
		return "unknown"
	}
}

var (
	// ErrPinOutOfRange is returned when a pin argument is outside 0..7.
	// No bus transaction is attempted in that case.
	ErrPinOutOfRange = errors.New("pcf8574: pin out of range 0..7")

	// ErrI2C is returned when a bus transaction fails or a read returns
	// the wrong byte count. Cached values are still returned so polling
	// loops degrade to stale data instead of crashing.
	ErrI2C = errors.New("pcf8574: i2c transaction failed")
)
