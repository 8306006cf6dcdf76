package session

import "fmt"

// Status is the screen a session is on. Exactly one holds at a time.
type Status uint8

const (
	StatusLoading Status = iota
	StatusError
	StatusReady
	StatusActive
	StatusFinished
)

var statusNames = [...]string{
	StatusLoading:  "loading",
	StatusError:    "error",
	StatusReady:    "ready",
	StatusActive:   "active",
	StatusFinished: "finished",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseStatus maps a status name back to its value.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown session status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown session status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
