package demo

import (
	"testing"

	"github.com/squadracorsepolito/bmsmon/consumer"
	"github.com/stretchr/testify/assert"
)

func Test_Generator_CoversLayout(t *testing.T) {
	assert := assert.New(t)

	values := NewGenerator(1).Generate(0)

	names := make(map[string]struct{}, len(values))
	for _, v := range values {
		names[v.Name] = struct{}{}
	}

	assert.Len(values, len(names))
	for _, name := range consumer.NewRegistry().SignalNames() {
		assert.Contains(names, name)
	}
}

func Test_Generator_Ranges(t *testing.T) {
	assert := assert.New(t)

	g := NewGenerator(42)
	for i := range 50 {
		rt := float64(i) * 0.2

		for _, v := range g.Generate(rt) {
			switch v.Name {
			case consumer.PackVoltage:
				assert.InDelta(320, v.Value, 10)
			case consumer.PackCurrent:
				assert.InDelta(0, v.Value, 5)
			case consumer.SegmentSignal(1, consumer.SuffixICVoltage):
				assert.InDelta(56, v.Value, 2)
			case consumer.SegmentSignal(1, consumer.SuffixFault),
				consumer.CellSignal(1, 1, consumer.SuffixDischarging):
				assert.Contains([]float64{0, 1}, v.Value)
			case consumer.CellSignal(3, 4, consumer.SuffixVoltage):
				assert.InDelta(3.75, v.Value, 0.085)
			case consumer.CellSignal(3, 4, consumer.SuffixVoltageDiff):
				assert.InDelta(0, v.Value, 85)
			case consumer.CellSignal(3, 4, consumer.SuffixTemp):
				assert.InDelta(28, v.Value, 6.2)
			}
		}
	}
}

func Test_Generator_Deterministic(t *testing.T) {
	assert.Equal(t, NewGenerator(7).Generate(1.5), NewGenerator(7).Generate(1.5))
}
