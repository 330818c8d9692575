// transport.go
//
// Bus access abstraction for the PCF8574 driver.
//
// The chip has no registers: a transaction is "send one byte" or "receive
// one byte" at the device address. The driver therefore only needs the
// three operations below, and taking them as an interface lets one driver
// instance run against any bus (rpi i2c, a remote bridge, a test fake)
// instead of hard-coding a bus implementation per board.
//
package pcf8574

import "github.com/reef-pi/rpi/i2c"

// Transport is the minimal bus surface the driver uses. Implementations
// must be safe for the single-owner, serialized call pattern documented
// on PCF8574; the driver never issues concurrent transactions itself.
type Transport interface {
	// Probe performs an address-only transaction and reports whether a
	// device acknowledged.
	Probe(addr byte) error

	// WriteBytes sends data to the device at addr.
	WriteBytes(addr byte, data []byte) error

	// ReadBytes receives n bytes from the device at addr. A nil error
	// with fewer than n bytes is treated as a failed transaction by the
	// driver.
	ReadBytes(addr byte, n int) ([]byte, error)
}

// busTransport adapts a reef-pi i2c.Bus to the Transport interface.
type busTransport struct {
	bus i2c.Bus
}

// NewBusTransport wraps an i2c.Bus. The probe is a zero-byte write: the
// address goes out on the wire and the ACK (or its absence) comes back
// without touching the chip's latch.
func NewBusTransport(bus i2c.Bus) Transport {
	return &busTransport{bus: bus}
}

func (t *busTransport) Probe(addr byte) error {
	return t.bus.WriteBytes(addr, nil)
}

func (t *busTransport) WriteBytes(addr byte, data []byte) error {
	return t.bus.WriteBytes(addr, data)
}

func (t *busTransport) ReadBytes(addr byte, n int) ([]byte, error) {
	return t.bus.ReadBytes(addr, n)
}
