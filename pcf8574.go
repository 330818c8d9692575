// pcf8574.go
//
// Core PCF8574 driver: cached latch state plus bulk/pin/transform
// operations.
//
// Notes about PCF8574 behavior (important for correct expectations):
//   - The PCF8574 has *no registers*. A 1-byte write sets the output latch
//     for all 8 pins; a 1-byte read returns the current pin levels.
//   - Writing a '1' to a pin bit "releases" the pin (quasi-input / pulled
//     high by a weak current source). Writing a '0' drives the pin LOW.
//   - Power-on reset leaves all pins released, so the latch cache starts
//     at 0xFF. A host reset does NOT reset the chip; call Begin to force a
//     known state.
//
// Driver design decisions here:
//   - Two cached bytes: dataOut is the last latch value commanded (updated
//     before the bus transaction and never rolled back on failure), dataIn
//     is the last level byte successfully read (stale after a failed read).
//   - Every operation funnels through Write8/Read8; those are the only two
//     methods that touch the Transport.
//   - No internal locking: one logical owner per instance. The reef-pi HAL
//     layer in hal.go adds the mutex for concurrent pin access.
//   - Failures degrade to cached data. Reads return the stale byte along
//     with the error so best-effort polling loops keep working.
//
package pcf8574

import (
	"fmt"
	"math/bits"
)

const (
	// DefaultAddress is the base address of the PCF8574 family. The
	// PCF8574 answers on 0x20..0x27, the PCF8574A on 0x38..0x3F; the
	// driver attempts whatever address it is given without validating
	// it against either range.
	DefaultAddress = 0x20

	// InitialValue is the power-on-reset latch value (all pins released)
	// and the default argument for Begin.
	InitialValue = 0xFF
)

// Pin levels for Write and the value returned by Read.
const (
	Low  uint8 = 0
	High uint8 = 1
)

// PCF8574 drives one chip at one bus address. Instances are not safe for
// concurrent use; callers must serialize access (see hal.go).
type PCF8574 struct {
	addr      byte
	transport Transport

	dataOut    uint8 // last commanded latch value
	dataIn     uint8 // last observed pin levels
	buttonMask uint8 // lines treated as inputs by ReadButtons
	code       ErrCode
}

// New creates a driver for the chip at addr on the given transport. The
// bus is not touched; call Begin to establish a known latch state.
func New(addr byte, transport Transport) *PCF8574 {
	return &PCF8574{
		addr:       addr,
		transport:  transport,
		dataOut:    InitialValue,
		buttonMask: 0xFF,
	}
}

// Begin verifies the device answers on the bus and writes value to the
// latch, overwriting whatever state the chip held across a host reset.
// No retry is attempted.
func (d *PCF8574) Begin(value uint8) error {
	if !d.Connected() {
		return fmt.Errorf("pcf8574 addr=0x%02X: no device on bus: %w", d.addr, ErrI2C)
	}
	return d.Write8(value)
}

// Connected reports whether a device acknowledges an address-only probe.
// Cached state is untouched.
func (d *PCF8574) Connected() bool {
	return d.transport.Probe(d.addr) == nil
}

// SetAddress changes the bus address and re-probes it.
//
// The cached latch and input bytes are NOT resynchronized: they still
// describe the previous device. Call Write8 or Read8 afterward to realign
// them with the chip now being addressed.
func (d *PCF8574) SetAddress(addr byte) error {
	d.addr = addr
	if !d.Connected() {
		return fmt.Errorf("pcf8574 addr=0x%02X: no device on bus: %w", d.addr, ErrI2C)
	}
	return nil
}

// Address returns the current bus address.
func (d *PCF8574) Address() byte { return d.addr }

// Value returns the input byte captured by the most recent successful
// read, without touching the bus.
func (d *PCF8574) Value() uint8 { return d.dataIn }

// ValueOut returns the last commanded latch value, without touching the
// bus.
func (d *PCF8574) ValueOut() uint8 { return d.dataOut }

// Read8 reads the level byte from the chip. On a failed transaction (bus
// error or short read) the previous input byte is returned unchanged
// along with the error.
func (d *PCF8574) Read8() (uint8, error) {
	buf, err := d.transport.ReadBytes(d.addr, 1)
	if err != nil {
		d.code = ErrCodeI2C
		return d.dataIn, fmt.Errorf("pcf8574 addr=0x%02X: read: %w: %v", d.addr, ErrI2C, err)
	}
	if len(buf) != 1 {
		d.code = ErrCodeI2C
		return d.dataIn, fmt.Errorf("pcf8574 addr=0x%02X: short read: got %d bytes: %w", d.addr, len(buf), ErrI2C)
	}
	d.dataIn = buf[0]
	return d.dataIn, nil
}

// Write8 commands the latch. The cache is updated before the transaction
// is attempted and is not rolled back on failure, so it always holds the
// most recently commanded value; check the returned error (or LastError)
// for confirmation.
func (d *PCF8574) Write8(value uint8) error {
	d.dataOut = value
	if err := d.transport.WriteBytes(d.addr, []byte{value}); err != nil {
		d.code = ErrCodeI2C
		return fmt.Errorf("pcf8574 addr=0x%02X: write 0x%02X: %w: %v", d.addr, value, ErrI2C, err)
	}
	d.code = OK
	return nil
}

// Read returns the level of one pin (0..7) as Low/High, refreshing the
// input cache. On a bus failure the stale cached bit is returned with the
// error.
func (d *PCF8574) Read(pin uint8) (uint8, error) {
	if pin > 7 {
		d.code = ErrCodePin
		return 0, fmt.Errorf("pcf8574 addr=0x%02X: read pin=%d: %w", d.addr, pin, ErrPinOutOfRange)
	}
	v, err := d.Read8()
	return (v >> pin) & 1, err
}

// Write sets one pin (0..7) to value (Low, or anything nonzero for High)
// and commands the resulting latch byte.
func (d *PCF8574) Write(pin uint8, value uint8) error {
	if pin > 7 {
		d.code = ErrCodePin
		return fmt.Errorf("pcf8574 addr=0x%02X: write pin=%d: %w", d.addr, pin, ErrPinOutOfRange)
	}
	out := d.dataOut
	if value == Low {
		out &^= 1 << pin
	} else {
		out |= 1 << pin
	}
	return d.Write8(out)
}

// Toggle inverts one pin (0..7).
func (d *PCF8574) Toggle(pin uint8) error {
	if pin > 7 {
		d.code = ErrCodePin
		return fmt.Errorf("pcf8574 addr=0x%02X: toggle pin=%d: %w", d.addr, pin, ErrPinOutOfRange)
	}
	return d.ToggleMask(1 << pin)
}

// ToggleMask inverts the pins selected by mask; 0xFF inverts all lines.
func (d *PCF8574) ToggleMask(mask uint8) error {
	return d.Write8(d.dataOut ^ mask)
}

// ShiftRight shifts the latch n positions toward pin 0, filling the high
// lines with zeros. n >= 8 clears the latch. A no-op (no bus traffic)
// when n is 0 or the latch is already 0.
func (d *PCF8574) ShiftRight(n uint8) error {
	if n == 0 || d.dataOut == 0 {
		return nil
	}
	out := d.dataOut
	if n > 7 {
		out = 0
	} else {
		out >>= n
	}
	return d.Write8(out)
}

// ShiftLeft shifts the latch n positions toward pin 7, filling the low
// lines with zeros. n >= 8 clears the latch. A no-op (no bus traffic)
// when n is 0 or the latch is already 0.
func (d *PCF8574) ShiftLeft(n uint8) error {
	if n == 0 || d.dataOut == 0 {
		return nil
	}
	out := d.dataOut
	if n > 7 {
		out = 0
	} else {
		out <<= n
	}
	return d.Write8(out)
}

// RotateRight rotates the latch n mod 8 positions, pin 0 wrapping to pin
// 7. A rotation congruent to 0 mod 8 is a no-op with no bus traffic.
func (d *PCF8574) RotateRight(n uint8) error {
	r := n & 7
	if r == 0 {
		return nil
	}
	return d.Write8(bits.RotateLeft8(d.dataOut, -int(r)))
}

// RotateLeft rotates the latch n mod 8 positions, pin 7 wrapping to pin
// 0. Defined as RotateRight(8 - n mod 8), so multiples of 8 are no-ops.
func (d *PCF8574) RotateLeft(n uint8) error {
	return d.RotateRight(8 - (n & 7))
}

// Reverse mirrors the latch, swapping pin 7 with 0, 6 with 1, and so on.
// Applying it twice restores the original value.
func (d *PCF8574) Reverse() error {
	return d.Write8(bits.Reverse8(d.dataOut))
}

// SetButtonMask selects which lines ReadButtons samples as inputs.
func (d *PCF8574) SetButtonMask(mask uint8) { d.buttonMask = mask }

// ButtonMask returns the current button mask.
func (d *PCF8574) ButtonMask() uint8 { return d.buttonMask }

// ReadButtons samples the lines selected by the stored button mask. See
// ReadButton8.
func (d *PCF8574) ReadButtons() (uint8, error) {
	return d.ReadButton8(d.buttonMask)
}

// ReadButton8 samples external switches wired to the masked lines: the
// masked bits are forced high (released) on top of the current latch, the
// level byte is read, and the original latch is restored. The restore
// write happens even when the intermediate read fails. Three bus
// transactions per call.
func (d *PCF8574) ReadButton8(mask uint8) (uint8, error) {
	saved := d.dataOut
	werr := d.Write8(mask | d.dataOut)
	v, rerr := d.Read8()
	serr := d.Write8(saved)
	if rerr != nil {
		return v, rerr
	}
	if werr != nil {
		return v, werr
	}
	return v, serr
}

// ReadButton samples a single switch on pin (0..7): the pin is released,
// read, and the original latch restored, failed read or not.
func (d *PCF8574) ReadButton(pin uint8) (uint8, error) {
	if pin > 7 {
		d.code = ErrCodePin
		return 0, fmt.Errorf("pcf8574 addr=0x%02X: read button pin=%d: %w", d.addr, pin, ErrPinOutOfRange)
	}
	saved := d.dataOut
	werr := d.Write(pin, High)
	v, rerr := d.Read(pin)
	serr := d.Write8(saved)
	if rerr != nil {
		return v, rerr
	}
	if werr != nil {
		return v, werr
	}
	return v, serr
}

// Select drives exactly pin high and every other line low, as a full
// latch overwrite. pin >= 8 drives all lines low.
func (d *PCF8574) Select(pin uint8) error {
	var out uint8
	if pin < 8 {
		out = 1 << pin
	}
	return d.Write8(out)
}

// SelectN drives pins 0..pin high and the rest low, as a full latch
// overwrite. pin >= 8 drives all lines high.
func (d *PCF8574) SelectN(pin uint8) error {
	out := uint8(0xFF)
	if pin < 8 {
		out = uint8(2<<pin - 1)
	}
	return d.Write8(out)
}

// SelectNone drives all lines low.
func (d *PCF8574) SelectNone() error { return d.Write8(0x00) }

// SelectAll releases all lines high.
func (d *PCF8574) SelectAll() error { return d.Write8(0xFF) }

// LastError returns the stored error code and resets it to OK. Callers
// polling it must capture the value per operation; a second immediate
// call returns OK. New code should prefer the error returns.
func (d *PCF8574) LastError() ErrCode {
	e := d.code
	d.code = OK
	return e
}
