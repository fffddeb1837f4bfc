// Package led drives the hive indicator light from the mite ratio.
package led

import (
	"sync"

	"beecam/internal/dto"
	"beecam/internal/logger"
	"beecam/internal/state"
)

// DefaultThreshold is the weighted mite percentage above which the light turns red.
const DefaultThreshold = 10.0

// Color is an RGB value sent to the indicator.
type Color struct {
	R, G, B uint8
	Name    string
}

var (
	Red   = Color{R: 255, Name: "red"}
	Green = Color{G: 255, Name: "green"}
)

// State is the last color the controller committed to.
type State int

const (
	Unknown State = iota
	GreenState
	RedState
)

func (s State) String() string {
	switch s {
	case GreenState:
		return "green"
	case RedState:
		return "red"
	default:
		return "unknown"
	}
}

// Indicator sets the physical (or virtual) light.
type Indicator interface {
	SetColor(c Color)
}

// TotalsSource provides the lifetime counters.
type TotalsSource interface {
	Totals() state.Totals
}

// Controller issues exactly one SetColor per state transition.
type Controller struct {
	mu        sync.Mutex
	state     State
	threshold float64
	totals    TotalsSource
	indicator Indicator
}

// NewController creates a Controller in the Unknown state.
func NewController(totals TotalsSource, indicator Indicator, threshold float64) *Controller {
	return &Controller{totals: totals, indicator: indicator, threshold: threshold}
}

// Init forces the first evaluation so the light reflects the counters at start.
func (c *Controller) Init() {
	c.Update(true)
}

// Update re-evaluates the target state. Without force an unchanged target is a no-op.
func (c *Controller) Update(force bool) {
	target, color := GreenState, Green
	if c.totals.Totals().WeightedPercent() > c.threshold {
		target, color = RedState, Red
	}

	c.mu.Lock()
	if target == c.state && !force {
		c.mu.Unlock()
		return
	}
	c.state = target
	c.mu.Unlock()

	c.indicator.SetColor(color)
}

// State returns the committed state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LogIndicator records color changes in the process log.
type LogIndicator struct {
	Logger *logger.Logger
}

func (l LogIndicator) SetColor(c Color) {
	l.Logger.Info("LED -> %s (%d,%d,%d)", c.Name, c.R, c.G, c.B)
}

// Publisher accepts live events.
type Publisher interface {
	Publish(event dto.LiveEvent)
}

// HubIndicator forwards color changes to live viewers.
type HubIndicator struct {
	Hub Publisher
}

func (h HubIndicator) SetColor(c Color) {
	h.Hub.Publish(dto.LiveEvent{Type: dto.EventLED, Color: c.Name})
}

// Multi fans a color out to several indicators.
type Multi []Indicator

func (m Multi) SetColor(c Color) {
	for _, ind := range m {
		ind.SetColor(c)
	}
}
