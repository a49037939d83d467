// Command expsim runs the expander firmware against the simulated bus and
// prints what the firmware would log on its debug UART.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gpioexp/config"
	"gpioexp/control"
	"gpioexp/core"
	"gpioexp/expander"
	"gpioexp/sim"
)

var (
	configPath = flag.String("config", "", "Board config JSON (default: reference board)")
	cycles     = flag.Int("cycles", 8, "Blink cycles to run")
	pressed    = flag.String("pressed", "2,3", "Comma-separated cycles during which the button is held")
	unplugged  = flag.String("unplugged", "", "Comma-separated cycles during which the expander does not answer")
	latency    = flag.Int("latency", 2, "Register polls per simulated bus action")
	verbose    = flag.Bool("verbose", false, "Print every register access")
)

func main() {
	flag.Parse()

	cfg := config.DefaultBoardConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cfg, err = config.LoadConfig(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	// Simulated time only advances when read, keep the blink short.
	cfg.Loop.HalfPeriod = 64

	pressedAt, err := parseCycles(*pressed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -pressed: %v\n", err)
		os.Exit(1)
	}
	unpluggedAt, err := parseCycles(*unplugged)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -unplugged: %v\n", err)
		os.Exit(1)
	}

	core.SetDebugWriter(func(s string) { fmt.Println(s) })
	core.SetDebugEnabled(*verbose || cfg.Debug)

	gpio := sim.NewGPIO()
	core.SetGPIODriver(gpio)
	clock := sim.NewClock(1)
	core.SetTimeSource(clock.Now)

	chip := sim.NewExpander(cfg.Expander.AddressBits)
	bus := sim.NewBus(chip)
	bus.Latency = *latency

	dev := expander.New(core.NewMaster(bus, cfg.MasterConfig()), cfg.Expander.AddressBits)
	if err := dev.Initialize(cfg.ExpanderInit()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: expander init: %v\n", err)
		os.Exit(1)
	}

	led, err := core.ConfigureDigitalOut(core.GPIOPin(cfg.Pins.LED), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: LED: %v\n", err)
		os.Exit(1)
	}

	loop := control.New(&dev, led, &core.CycleCounter{}, cfg.LoopSettings())
	for i := 1; i <= *cycles; i++ {
		chip.SetInput(cfg.Expander.ButtonPin, !pressedAt[i])
		chip.Silent = unpluggedAt[i]

		err := loop.Cycle()
		state := "off"
		if !chip.Output(0) { // GP0 sinks the LED
			state = "on"
		}
		fmt.Printf("cycle %d: button=%s expander-led=%s", i, buttonName(pressedAt[i]), state)
		if err != nil {
			fmt.Printf(" error=%v", err)
		}
		fmt.Println()
	}

	failures, _ := loop.Failures()
	fmt.Printf("%d cycles, %d failed polls, %d bus events, %d violations\n",
		loop.Cycles(), failures, len(bus.Events), len(bus.Violations))
	for _, v := range bus.Violations {
		fmt.Println("violation:", v)
	}
	if len(bus.Violations) > 0 {
		os.Exit(1)
	}
}

func buttonName(down bool) string {
	if down {
		return "pressed"
	}
	return "released"
}

// parseCycles turns "1,4,5" into a set of cycle numbers.
func parseCycles(s string) (map[int]bool, error) {
	set := make(map[int]bool)
	if s == "" {
		return set, nil
	}
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("cycle %q: %w", f, err)
		}
		set[n] = true
	}
	return set, nil
}
