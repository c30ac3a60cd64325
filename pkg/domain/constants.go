package domain

// Standard events fired by states.
const (
	// EventContinue is the default completion event of a state.
	EventContinue = "continue"
	// EventFailed is fired instead of the completion event when an entry action fails.
	EventFailed = "failed"
	// EventSuccess is the conventional completion event of states that mutate data.
	EventSuccess = "success"
)

// Keypad vocabulary shared by list-browsing flows.
// Flows defining custom menus document their own mapping.
const (
	KeySelect   = 1
	KeyPrevious = 2
	KeyNext     = 3
	KeyRepeat   = 4
	KeyExit     = 5
)

// DefaultMaxTransitions bounds the number of transitions a single session may take.
const DefaultMaxTransitions = 10000
