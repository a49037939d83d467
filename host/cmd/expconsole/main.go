package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gpioexp/host/serial"
)

var (
	device     = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud       = flag.Int("baud", serial.DefaultBaud, "Debug UART baud rate")
	timestamps = flag.Bool("timestamps", false, "Prefix each line with the host time")
	faultsOnly = flag.Bool("faults", false, "Only print failure reports and bus dumps")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	fmt.Printf("Listening on %s at %d baud (Ctrl-C to quit)\n", cfg.Device, cfg.Baud)

	lr := serial.NewLineReader(port)
	lr.Follow = true
	for {
		line, err := lr.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read failed: %v\n", err)
			os.Exit(1)
		}

		if *faultsOnly && !isFault(line.Text) {
			continue
		}

		if *timestamps {
			fmt.Printf("%s %s\n", line.At.Format("15:04:05.000"), line.Text)
		} else {
			fmt.Println(line.Text)
		}
	}
}

// isFault matches failure reports and the bus ring dumps that follow them.
func isFault(text string) bool {
	return strings.HasPrefix(text, "[BUS]") || strings.Contains(text, "failed")
}
