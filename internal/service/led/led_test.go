package led

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"beecam/internal/dto"
	"beecam/internal/logger"
	"beecam/internal/state"
)

type recorder struct {
	colors []Color
}

func (r *recorder) SetColor(c Color) { r.colors = append(r.colors, c) }

type fixedTotals struct{ t state.Totals }

func (f *fixedTotals) Totals() state.Totals { return f.t }

type publisher struct{ events []dto.LiveEvent }

func (p *publisher) Publish(e dto.LiveEvent) { p.events = append(p.events, e) }

func TestController_TurnsRedOnce(t *testing.T) {
	rec := &recorder{}
	c := NewController(&fixedTotals{state.Totals{Bees: 100, Mites: 20}}, rec, DefaultThreshold)
	assert.Equal(t, Unknown, c.State())

	c.Update(false)
	c.Update(false)

	assert.Equal(t, RedState, c.State())
	assert.Equal(t, []Color{Red}, rec.colors)
}

func TestController_InitForcesColor(t *testing.T) {
	rec := &recorder{}
	totals := &fixedTotals{}
	c := NewController(totals, rec, DefaultThreshold)

	c.Init()
	c.Update(false)
	c.Update(true)
	assert.Equal(t, []Color{Green, Green}, rec.colors)
	assert.Equal(t, GreenState, c.State())
}

func TestController_Transitions(t *testing.T) {
	rec := &recorder{}
	totals := &fixedTotals{state.Totals{Bees: 10, Mites: 1}}
	c := NewController(totals, rec, DefaultThreshold)

	c.Update(false) // exactly 10% stays green
	totals.t = state.Totals{Bees: 10, Mites: 2}
	c.Update(false)
	totals.t = state.Totals{Bees: 100, Mites: 2}
	c.Update(false)

	assert.Equal(t, []Color{Green, Red, Green}, rec.colors)
}

func TestIndicators(t *testing.T) {
	var buf bytes.Buffer
	pub := &publisher{}
	Multi{LogIndicator{Logger: logger.New(&buf)}, HubIndicator{Hub: pub}}.SetColor(Red)

	assert.Contains(t, buf.String(), "LED -> red (255,0,0)")
	assert.Equal(t, []dto.LiveEvent{{Type: dto.EventLED, Color: "red"}}, pub.events)
	assert.Equal(t, "red", RedState.String())
	assert.Equal(t, "unknown", Unknown.String())
}
