package core

import "testing"

func TestFormatters(t *testing.T) {
	testCases := []struct {
		name string
		got  string
		want string
	}{
		{"utoa zero", utoa(0), "0"},
		{"utoa max", utoa(4294967295), "4294967295"},
		{"itoa negative", itoa(-42), "-42"},
		{"itoa positive", itoa(2400000), "2400000"},
		{"hex8 low", hex8(0x09), "09"},
		{"hex8 high", hex8(0xA0), "a0"},
		{"bin8 direction", bin8(0b11110000), "11110000"},
		{"bin8 led", bin8(0b00000001), "00000001"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, tc.got)
			}
		})
	}
}

func TestDebugPrintlnGating(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(s string) {})
	defer SetDebugEnabled(false)

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	if len(lines) != 0 {
		t.Errorf("Expected no output while disabled, got %v", lines)
	}

	SetDebugEnabled(true)
	DebugPrintln("shown")
	if len(lines) != 1 || lines[0] != "shown" {
		t.Errorf("Expected [shown], got %v", lines)
	}
}

func TestCycleCounter(t *testing.T) {
	var now uint32 = 1000
	SetTimeSource(func() uint32 { return now })
	defer SetTimeSource(nil)

	var c CycleCounter
	c.Reset()
	now += 250
	if c.Count() != 250 {
		t.Errorf("Expected count 250, got %d", c.Count())
	}

	// The counter is free running and may wrap between resets.
	c.Reset()
	now = 10
	if got := c.Count(); got != 10+(4294967295-1250)+1 {
		t.Errorf("Unexpected count across wrap: %d", got)
	}

	if TimerFromUS(100000, CoreTimerFreq) != 2400000 {
		t.Errorf("Expected 100ms = 2400000 ticks, got %d", TimerFromUS(100000, CoreTimerFreq))
	}
}
