package pcf8574_test

import (
	"testing"

	"github.com/epicfatigue/pcf8574"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is an in-memory i2c.Bus double. A zero-length write is the
// address-only probe issued by the bus transport.
type fakeBus struct {
	port   byte
	writes [][]byte
	fail   bool
}

func (b *fakeBus) ReadBytes(addr byte, num int) ([]byte, error) {
	if b.fail {
		return nil, errBus
	}
	out := make([]byte, num)
	if num > 0 {
		out[0] = b.port
	}
	return out, nil
}

func (b *fakeBus) WriteBytes(addr byte, value []byte) error {
	b.writes = append(b.writes, append([]byte(nil), value...))
	if b.fail {
		return errBus
	}
	return nil
}

func (b *fakeBus) SetAddress(addr byte) error                     { return nil }
func (b *fakeBus) ReadFromReg(addr, reg byte, value []byte) error { return nil }
func (b *fakeBus) WriteToReg(addr, reg byte, value []byte) error  { return nil }
func (b *fakeBus) Close() error                                   { return nil }

func (b *fakeBus) lastWrite() []byte {
	return b.writes[len(b.writes)-1]
}

func TestFactoryMetadata(t *testing.T) {
	f := pcf8574.Factory()

	meta := f.Metadata()
	assert.Equal(t, "pcf8574", meta.Name)

	params := f.GetParameters()
	require.Len(t, params, 2)
	assert.Equal(t, "Address", params[0].Name)
	assert.Equal(t, "0x20", params[0].Default)
	assert.Equal(t, "Debug", params[1].Name)
}

func TestFactoryValidateParameters(t *testing.T) {
	f := pcf8574.Factory()

	tests := []struct {
		name   string
		params map[string]interface{}
		valid  bool
	}{
		{"hex address", map[string]interface{}{"Address": "0x20"}, true},
		{"decimal address", map[string]interface{}{"Address": "56"}, true},
		{"with debug", map[string]interface{}{"Address": "0x38", "Debug": true}, true},
		{"missing address", map[string]interface{}{}, false},
		{"blank address", map[string]interface{}{"Address": "  "}, false},
		{"garbage address", map[string]interface{}{"Address": "0xZZ"}, false},
		{"address too wide", map[string]interface{}{"Address": "0xFF"}, false},
		{"debug not boolean", map[string]interface{}{"Address": "0x20", "Debug": "yes"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, failures := f.ValidateParameters(tt.params)
			assert.Equal(t, tt.valid, ok)
			if !tt.valid {
				assert.NotEmpty(t, failures)
			}
		})
	}
}

func TestFactoryNewDriver(t *testing.T) {
	bus := &fakeBus{}

	d, err := pcf8574.Factory().NewDriver(map[string]interface{}{"Address": "0x20"}, bus)
	require.NoError(t, err)
	assert.Equal(t, "pcf8574", d.Metadata().Name)

	// Init sequence: address-only probe, then the 0xFF safe-state write.
	require.Len(t, bus.writes, 2)
	assert.Empty(t, bus.writes[0])
	assert.Equal(t, []byte{0xFF}, bus.writes[1])
}

func TestFactoryNewDriverBadBus(t *testing.T) {
	_, err := pcf8574.Factory().NewDriver(map[string]interface{}{"Address": "0x20"}, struct{}{})
	assert.Error(t, err)
}

func TestFactoryNewDriverBadParams(t *testing.T) {
	_, err := pcf8574.Factory().NewDriver(map[string]interface{}{"Address": "nope"}, &fakeBus{})
	assert.Error(t, err)
}

func TestFactoryNewDriverDeadBus(t *testing.T) {
	_, err := pcf8574.Factory().NewDriver(map[string]interface{}{"Address": "0x20"}, &fakeBus{fail: true})
	assert.ErrorIs(t, err, pcf8574.ErrI2C)
}
