package channel

// State is a position in the channel's request/response lifecycle:
//
//	Idle -> AwaitingReady -> Ready <-> AwaitingResponse
//	any  -> Closed
type State int

const (
	Idle State = iota
	AwaitingReady
	Ready
	AwaitingResponse
	Closed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AwaitingReady:
		return "AwaitingReady"
	case Ready:
		return "Ready"
	case AwaitingResponse:
		return "AwaitingResponse"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}
