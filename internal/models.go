package internal

import "fmt"

// Role identifies the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single chat message
type Message struct {
	Role      Role   `json:"role" yaml:"role"`
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// State is the turn-submission state of a conversation session
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
	StateStreamingResponse
	StateErrored
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateAwaitingResponse:  "awaiting_response",
	StateStreamingResponse: "streaming_response",
	StateErrored:           "errored",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state by name for JSON and YAML encoders
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// InFlight reports whether a turn is outstanding
func (s State) InFlight() bool {
	return s == StateAwaitingResponse || s == StateStreamingResponse
}
