package core

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// Direction bit appended to the device address after start/restart.
const (
	I2CWrite = 0
	I2CRead  = 1
)

// AddressByte returns the first byte sent after a start or restart.
func (a I2CAddress) AddressByte(dir uint8) byte {
	return byte(a)<<1 | dir&0x01
}

// I2CxCON control bits. Trigger bits (SEN, RSEN, PEN, RCEN, ACKEN) are
// cleared by hardware once the bus action has completed.
const (
	CON_SEN   = 1 << 0  // Start condition enable
	CON_RSEN  = 1 << 1  // Repeated start condition enable
	CON_PEN   = 1 << 2  // Stop condition enable
	CON_RCEN  = 1 << 3  // Receive enable
	CON_ACKEN = 1 << 4  // Acknowledge sequence enable
	CON_ACKDT = 1 << 5  // Acknowledge data bit (1 = NACK)
	CON_ON    = 1 << 15 // Module enable
)

// I2CxSTAT status bits.
const (
	STAT_RBF     = 1 << 1  // Receive buffer full
	STAT_TRSTAT  = 1 << 14 // Master transmit in progress
	STAT_ACKSTAT = 1 << 15 // Acknowledge not received from slave
)

// BRGMax is the largest value the 12-bit baud rate generator accepts.
const BRGMax = 0x0FFF

// I2CRegisters is the register block of a polled I2C master peripheral.
//
// The shape follows the PIC32 I2Cx module: SetCON/ClearCON behave like the
// CONSET/CONCLR aliases, writing TRN starts a transmission and reading RCV
// clears RBF. Implementations are expected to be used from a single thread.
type I2CRegisters interface {
	// CON returns the control register.
	CON() uint32

	// SetCON sets the bits of mask in the control register.
	SetCON(mask uint32)

	// ClearCON clears the bits of mask in the control register.
	ClearCON(mask uint32)

	// STAT returns the status register.
	STAT() uint32

	// SetBRG writes the baud rate generator reload value.
	SetBRG(brg uint32)

	// WriteTRN loads the transmit register and starts clocking it out.
	WriteTRN(b byte)

	// ReadRCV returns the receive register and clears RBF.
	ReadRCV() byte
}
