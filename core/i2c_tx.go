package core

import (
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// The software master can stand in for machine.I2C or a periph.io bus, so
// stock device drivers can share it with the expander.
var (
	_ drivers.I2C = (*Master)(nil)
	_ i2c.Bus     = (*Master)(nil)
)

// Tx performs a combined write/read transfer using only the bus primitives:
// start, address+W, w..., restart, address+R, r... (ACK between bytes,
// NACK on the last), stop. Either buffer may be empty.
func (m *Master) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return ErrInvalidAddress
	}
	a := I2CAddress(addr)

	if err := m.Start(); err != nil {
		return m.abort(err)
	}

	// A zero-length transfer still addresses the device in write direction,
	// which is how a bus scan probes for presence.
	wrote := false
	if len(w) > 0 || len(r) == 0 {
		if err := m.Send(a.AddressByte(I2CWrite)); err != nil {
			return m.abort(err)
		}
		for _, b := range w {
			if err := m.Send(b); err != nil {
				return m.abort(err)
			}
		}
		wrote = true
	}

	if len(r) > 0 {
		if wrote {
			if err := m.Restart(); err != nil {
				return m.abort(err)
			}
		}
		if err := m.Send(a.AddressByte(I2CRead)); err != nil {
			return m.abort(err)
		}
		for i := range r {
			b, err := m.Receive()
			if err != nil {
				return m.abort(err)
			}
			r[i] = b
			if err := m.Ack(i == len(r)-1); err != nil {
				return m.abort(err)
			}
		}
	}

	return m.Stop()
}

// ReadRegister reads len(buf) bytes starting at register r of the device.
func (m *Master) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return m.Tx(uint16(addr), []byte{r}, buf)
}

// WriteRegister writes buf starting at register r of the device.
func (m *Master) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, r)
	w = append(w, buf...)
	return m.Tx(uint16(addr), w, nil)
}

// String implements periph.io's conn.Resource.
func (m *Master) String() string {
	return "soft-i2c"
}

// Halt aborts any open transaction.
func (m *Master) Halt() error {
	return m.ReleaseBus()
}

// SetSpeed re-derives the baud rate generator for a new bus rate.
func (m *Master) SetSpeed(f physic.Frequency) error {
	return m.Configure(f)
}

// abort releases the bus after a failed primitive and returns the original
// error; a failure of the stop itself is only logged.
func (m *Master) abort(err error) error {
	if rerr := m.ReleaseBus(); rerr != nil {
		DebugPrintln("[I2C] release failed: " + rerr.Error())
	}
	return err
}
