//go:build rp2040

package main

import (
	"gpioexp/core"
	"machine"
)

var debugUART *machine.UART

// InitDebugUART brings up UART0 on GPIO0 (TX) and GPIO1 (RX) at 115200 baud
// and routes core debug output to it.
func InitDebugUART() {
	debugUART = machine.UART0

	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		debugUART = nil
		return
	}

	core.SetDebugWriter(debugWrite)
}

func debugWrite(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
