package core

import "errors"

var (
	// ErrNoAcknowledgment signals that the addressed device did not ACK a byte.
	ErrNoAcknowledgment = errors.New("no acknowledgment")

	// ErrBusTimeout signals that a hardware-cleared flag never changed state.
	ErrBusTimeout = errors.New("bus timeout")

	// ErrBusState signals a primitive issued outside its legal bus phase.
	ErrBusState = errors.New("operation not valid in current bus phase")

	// ErrInvalidAddress signals an address that does not fit in 7 bits.
	ErrInvalidAddress = errors.New("address does not fit in 7 bits")

	// ErrInvalidRate signals a bus rate the baud rate generator cannot produce.
	ErrInvalidRate = errors.New("unsupported bus rate")
)

// BusError reports which primitive failed and the byte it was handling.
type BusError struct {
	Op   string
	Byte byte
	Err  error
}

func (e *BusError) Error() string {
	return "i2c " + e.Op + " 0x" + hex8(e.Byte) + ": " + e.Err.Error()
}

func (e *BusError) Unwrap() error {
	return e.Err
}
