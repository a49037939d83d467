package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BusEvent captures one bus primitive for post-mortem analysis
type BusEvent struct {
	EventType uint8  // Event type code
	Byte      uint8  // Byte sent or received, 0 otherwise
	Result    uint8  // Result code
	Clock     uint32 // System clock at event
}

// Event type codes
const (
	EvtStart   = 1
	EvtRestart = 2
	EvtSend    = 3
	EvtReceive = 4
	EvtAck     = 5
	EvtNack    = 6
	EvtStop    = 7
)

// Result codes
const (
	ResultOK      = 0
	ResultNack    = 1 // Slave did not acknowledge
	ResultTimeout = 2 // Hardware flag never settled
	ResultState   = 3 // Primitive issued in the wrong bus phase
)

const (
	BusRingSize = 32 // Keep last 32 primitives for post-mortem
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	// Bus event ring buffer, always recording
	busRing     [BusRingSize]BusEvent
	busRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, stdout, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordBusEvent captures a bus primitive in the ring buffer
func RecordBusEvent(eventType, b, result uint8) {
	idx := busRingHead
	busRing[idx] = BusEvent{
		EventType: eventType,
		Byte:      b,
		Result:    result,
		Clock:     GetTime(),
	}
	busRingHead = (idx + 1) % BusRingSize
}

// BusEvents returns the recorded events, oldest first
func BusEvents() []BusEvent {
	events := make([]BusEvent, 0, BusRingSize)
	start := busRingHead
	for i := uint8(0); i < BusRingSize; i++ {
		evt := busRing[(start+i)%BusRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpBusRing outputs the bus event ring (call after a bus failure)
// Output goes to the writer even when debug printing is disabled.
func DumpBusRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[BUS] === Bus Ring Dump ===")
	for _, evt := range BusEvents() {
		debugPrintln("[BUS] " + eventName(evt.EventType) +
			" byte=0x" + hex8(evt.Byte) +
			" result=" + resultName(evt.Result) +
			" clock=" + utoa(evt.Clock))
	}
	debugPrintln("[BUS] === End Dump ===")
}

// ClearBusRing clears the bus event buffer
func ClearBusRing() {
	for i := range busRing {
		busRing[i] = BusEvent{}
	}
	busRingHead = 0
}

func eventName(t uint8) string {
	switch t {
	case EvtStart:
		return "START"
	case EvtRestart:
		return "RESTART"
	case EvtSend:
		return "SEND"
	case EvtReceive:
		return "RECV"
	case EvtAck:
		return "ACK"
	case EvtNack:
		return "NACK"
	case EvtStop:
		return "STOP"
	}
	return "UNKNOWN"
}

func resultName(r uint8) string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultNack:
		return "nack"
	case ResultTimeout:
		return "timeout"
	case ResultState:
		return "bad-phase"
	}
	return "?"
}

func resultFor(err error) uint8 {
	switch err {
	case nil:
		return ResultOK
	case ErrNoAcknowledgment:
		return ResultNack
	case ErrBusTimeout:
		return ResultTimeout
	}
	return ResultState
}
