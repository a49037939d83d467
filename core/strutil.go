package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

const hexDigits = "0123456789abcdef"

// hex8 formats a byte as two lowercase hex digits
func hex8(b byte) string {
	return string([]byte{hexDigits[b>>4], hexDigits[b&0x0F]})
}

// bin8 formats a byte as eight binary digits, MSB first
func bin8(b byte) string {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		if b&(0x80>>i) != 0 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf[:])
}

// Itoa, Hex8 and Bin8 export the formatters for packages that log through
// DebugPrintln.
func Itoa(n int) string  { return itoa(n) }
func Hex8(b byte) string { return hex8(b) }
func Bin8(b byte) string { return bin8(b) }
