// hal.go
//
// reef-pi HAL glue for PCF8574.
//
// This file provides:
//   - pin objects implementing hal.DigitalInputPin and hal.DigitalOutputPin
//   - a driver implementing hal.DigitalInputDriver and hal.DigitalOutputDriver
//
// Concurrency / atomicity:
//   - The core PCF8574 driver is single-owner and lock-free; this layer
//     owns the mutex and holds it across multi-step operations like
//     "release -> write -> read" so concurrent outlet writes cannot
//     interleave and break input semantics.
//
package pcf8574

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/reef-pi/hal"
)

// pcf8574Pin represents one line on the expander (0..7).
type pcf8574Pin struct {
	driver *pcf8574Driver
	pin    int
}

func (p *pcf8574Pin) Name() string { return fmt.Sprintf("PCF8574:%d", p.pin) }
func (p *pcf8574Pin) Number() int  { return p.pin }
func (p *pcf8574Pin) Close() error { return nil }

func (p *pcf8574Pin) Read() (bool, error) {
	return p.driver.readPin(p.pin)
}

func (p *pcf8574Pin) Write(b bool) error {
	return p.driver.writePin(p.pin, b)
}

func (p *pcf8574Pin) LastState() bool {
	return p.driver.lastLatched(p.pin)
}

// pcf8574Driver is the reef-pi driver instance for one chip at one I2C
// address.
type pcf8574Driver struct {
	hw *PCF8574

	// Serialize ALL interactions with the chip.
	mu sync.Mutex

	// invert allows "active-low" semantics (if true: Write(true) drives
	// LOW). Not currently exposed in factory parameters.
	invert bool

	// debug enables verbose log messages.
	debug bool

	// meta is provided by factory (so UI name/desc stays consistent).
	meta hal.Metadata

	pins []*pcf8574Pin
}

func (d *pcf8574Driver) Close() error { return nil }

func (d *pcf8574Driver) Metadata() hal.Metadata {
	if d.meta.Name != "" {
		return d.meta
	}
	// fallback
	return hal.Metadata{
		Name:        "pcf8574",
		Description: "Supports one PCF8574 8-bit I2C GPIO expander",
		Capabilities: []hal.Capability{
			hal.DigitalInput,
			hal.DigitalOutput,
		},
	}
}

// -----------------------------------------------------------------------------
// Required by hal.DigitalInputDriver / hal.DigitalOutputDriver
// -----------------------------------------------------------------------------

func (d *pcf8574Driver) DigitalInputPins() []hal.DigitalInputPin {
	out := make([]hal.DigitalInputPin, len(d.pins))
	for i, p := range d.pins {
		out[i] = p
	}
	return out
}

func (d *pcf8574Driver) DigitalOutputPins() []hal.DigitalOutputPin {
	out := make([]hal.DigitalOutputPin, len(d.pins))
	for i, p := range d.pins {
		out[i] = p
	}
	return out
}

func (d *pcf8574Driver) DigitalInputPin(n int) (hal.DigitalInputPin, error) {
	if n < 0 || n >= len(d.pins) {
		return nil, fmt.Errorf("pcf8574 addr=0x%02X: invalid pin %d", d.hw.Address(), n)
	}
	return d.pins[n], nil
}

func (d *pcf8574Driver) DigitalOutputPin(n int) (hal.DigitalOutputPin, error) {
	if n < 0 || n >= len(d.pins) {
		return nil, fmt.Errorf("pcf8574 addr=0x%02X: invalid pin %d", d.hw.Address(), n)
	}
	return d.pins[n], nil
}

// Optional (some parts of reef-pi may still call this).
func (d *pcf8574Driver) Pins(cap hal.Capability) ([]hal.Pin, error) {
	switch cap {
	case hal.DigitalInput, hal.DigitalOutput:
		var pins []hal.Pin
		for _, p := range d.pins {
			pins = append(pins, p)
		}
		sort.Slice(pins, func(i, j int) bool { return pins[i].Name() < pins[j].Name() })
		return pins, nil
	default:
		return nil, fmt.Errorf("pcf8574 addr=0x%02X: unsupported capability: %s", d.hw.Address(), cap.String())
	}
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

// lastLatched returns the last *latched* state for a pin.
// IMPORTANT: this is not the same thing as the *actual level* on the pin.
// Use Read() to get the actual pin level.
func (d *pcf8574Driver) lastLatched(pin int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	high := (d.hw.ValueOut() & (1 << pin)) != 0
	if d.invert {
		return !high
	}
	return high
}

// readPin reads the actual pin level.
//
// PCF8574 nuance:
//   - To treat a pin as input, you must "release" it (write bit=1).
//   - Then you can read the port to see the current level.
//
// The pin stays released afterward; reef-pi input pins are expected to
// remain inputs between polls.
func (d *pcf8574Driver) readPin(pin int) (bool, error) {
	if pin < 0 || pin > 7 {
		return false, fmt.Errorf("pcf8574 addr=0x%02X: read invalid pin=%d", d.hw.Address(), pin)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Release pin for input semantics.
	if err := d.hw.Write(uint8(pin), High); err != nil {
		return false, fmt.Errorf("pcf8574 addr=0x%02X read pin=%d: release failed: %w", d.hw.Address(), pin, err)
	}

	v, err := d.hw.Read(uint8(pin))
	if err != nil {
		return false, fmt.Errorf("pcf8574 addr=0x%02X read pin=%d: read failed: %w", d.hw.Address(), pin, err)
	}

	if d.debug {
		log.Printf("pcf8574 addr=0x%02X read pin=%d: port=0x%02X level=%v (latch=0x%02X)",
			d.hw.Address(), pin, d.hw.Value(), v == High, d.hw.ValueOut())
	}

	return v == High, nil
}

// writePin applies reef-pi "on/off" semantics to the PCF8574 latch
// semantics.
//
// By default (invert=false):
//   - on=true  => released/high (bit=1)
//   - on=false => drive low (bit=0)
//
// If invert=true (active-low):
//   - on=true  => drive low (bit=0)
//   - on=false => release/high (bit=1)
func (d *pcf8574Driver) writePin(pin int, on bool) error {
	if pin < 0 || pin > 7 {
		return fmt.Errorf("pcf8574 addr=0x%02X: write invalid pin=%d", d.hw.Address(), pin)
	}

	released := on
	if d.invert {
		released = !on
	}

	level := Low
	if released {
		level = High
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.hw.ValueOut()
	if err := d.hw.Write(uint8(pin), level); err != nil {
		return fmt.Errorf("pcf8574 addr=0x%02X write pin=%d: latch=0x%02X failed: %w",
			d.hw.Address(), pin, d.hw.ValueOut(), err)
	}

	if d.debug {
		log.Printf("pcf8574 addr=0x%02X latch pin=%d released=%v: 0x%02X -> 0x%02X",
			d.hw.Address(), pin, released, prev, d.hw.ValueOut())
	}

	return nil
}
