// Package demo synthesizes plausible BMS values when no bus is connected.
package demo

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/squadracorsepolito/bmsmon/catalog"
	"github.com/squadracorsepolito/bmsmon/consumer"
)

// Config is the configuration of the demo generator.
type Config struct {
	Interval time.Duration
	// Seed of the jitter source. Zero picks a random seed.
	Seed uint64
}

// NewDefaultConfig returns the default configuration of the demo generator.
func NewDefaultConfig() *Config {
	return &Config{
		Interval: 200 * time.Millisecond,
	}
}

const (
	segFaultProb    = 0.002
	segCommsProb    = 0.001
	cellDischProb   = 0.02
	cellFaultProb   = 0.003
	cellVoltJitter  = 0.005
	cellTempJitter  = 0.2
	nominalCellVolt = 3.75
)

// Generator produces one value for every signal of the pack layout on each tick.
// It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded from seed.
// A zero seed picks a random one.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *Generator) jitter(amplitude float64) float64 {
	return (g.rng.Float64()*2 - 1) * amplitude
}

func (g *Generator) flip(prob float64) float64 {
	if g.rng.Float64() < prob {
		return 1
	}
	return 0
}

// Generate returns the values of every signal at relative time rt, in layout order.
func (g *Generator) Generate(rt float64) []catalog.Value {
	values := make([]catalog.Value, 0, 2+consumer.Segments*(4+consumer.CellsPerSegment*5))

	push := func(name string, v float64) {
		values = append(values, catalog.Value{Name: name, Value: v})
	}

	push(consumer.PackVoltage, 320+10*math.Sin(rt/5))
	push(consumer.PackCurrent, 5*math.Sin(rt/2))

	for seg := 1; seg <= consumer.Segments; seg++ {
		fSeg := float64(seg)

		push(consumer.SegmentSignal(seg, consumer.SuffixICVoltage), 56+2*math.Sin(rt/3+fSeg))
		push(consumer.SegmentSignal(seg, consumer.SuffixICTemp), 25+5*math.Sin(rt/4+fSeg/2))
		push(consumer.SegmentSignal(seg, consumer.SuffixFault), g.flip(segFaultProb))
		push(consumer.SegmentSignal(seg, consumer.SuffixCommsError), g.flip(segCommsProb))

		for cell := 1; cell <= consumer.CellsPerSegment; cell++ {
			fCell := float64(cell)

			v := nominalCellVolt + 0.08*math.Sin(rt/2+(fSeg*fCell)/20) + g.jitter(cellVoltJitter)
			// Truncated toward zero, in mV
			vd := math.Trunc((v - nominalCellVolt) * 1000)
			temp := 28 + 6*math.Sin(rt/6+fCell/5) + g.jitter(cellTempJitter)

			push(consumer.CellSignal(seg, cell, consumer.SuffixVoltage), v)
			push(consumer.CellSignal(seg, cell, consumer.SuffixVoltageDiff), vd)
			push(consumer.CellSignal(seg, cell, consumer.SuffixTemp), temp)
			push(consumer.CellSignal(seg, cell, consumer.SuffixDischarging), g.flip(cellDischProb))
			push(consumer.CellSignal(seg, cell, consumer.SuffixFault), g.flip(cellFaultProb))
		}
	}

	return values
}
