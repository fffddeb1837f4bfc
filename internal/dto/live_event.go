package dto

// Live event types pushed to /api/live viewers.
const (
	EventState = "state"
	EventLED   = "led"
	EventFile  = "file"
	EventFrame = "frame"
)

// LiveEvent is a single websocket message.
type LiveEvent struct {
	Type  string         `json:"type"`
	State *StateResponse `json:"state,omitempty"`
	Color string         `json:"color,omitempty"`
	Path  string         `json:"path,omitempty"`
	Boot  uint32         `json:"boot,omitempty"`
	Frame uint32         `json:"frame,omitempty"`
	Bees  int            `json:"bees,omitempty"`
	Mites int            `json:"mites,omitempty"`
}
