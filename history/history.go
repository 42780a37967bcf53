// Package history stores the per-signal time series fed by the pipeline.
//
// A Store is not safe for concurrent use. It must be owned by a single
// goroutine, the pipeline consumer loop.
package history

import (
	"slices"
)

// PlotWindow is the number of samples shown by a plot view.
const PlotWindow = 500

// Sample is a single observation of a signal.
// Time is expressed in seconds since the session origin.
type Sample struct {
	Time  float64 `json:"t"`
	Value float64 `json:"v"`
}

type series struct {
	samples []Sample
}

// Store keeps one series for every known signal.
type Store struct {
	series map[string]*series
	names  []string
}

// NewStore returns a store with an empty series for each of the given names.
// Duplicated names are kept once.
func NewStore(names []string) *Store {
	s := &Store{
		series: make(map[string]*series, len(names)),
		names:  make([]string, 0, len(names)),
	}

	for _, name := range names {
		if _, ok := s.series[name]; ok {
			continue
		}

		s.series[name] = &series{}
		s.names = append(s.names, name)
	}

	return s
}

// Has reports whether name is a known signal.
func (s *Store) Has(name string) bool {
	_, ok := s.series[name]
	return ok
}

// Append adds a sample to the series of name.
// It returns false if the signal is unknown.
func (s *Store) Append(name string, sample Sample) bool {
	ser, ok := s.series[name]
	if !ok {
		return false
	}

	ser.samples = append(ser.samples, sample)
	return true
}

// Latest returns the last sample of name.
// The boolean is false when the signal is unknown or has no samples.
func (s *Store) Latest(name string) (Sample, bool) {
	ser, ok := s.series[name]
	if !ok || len(ser.samples) == 0 {
		return Sample{}, false
	}
	return ser.samples[len(ser.samples)-1], true
}

// Last returns a copy of the most recent n samples of name, oldest first.
// A non positive n returns the whole series.
func (s *Store) Last(name string, n int) []Sample {
	ser, ok := s.series[name]
	if !ok {
		return nil
	}

	samples := ser.samples
	if n > 0 && len(samples) > n {
		samples = samples[len(samples)-n:]
	}

	return slices.Clone(samples)
}

// Len returns the number of samples stored for name.
func (s *Store) Len(name string) int {
	ser, ok := s.series[name]
	if !ok {
		return 0
	}
	return len(ser.samples)
}

// Clear empties the series of name while keeping the signal known.
func (s *Store) Clear(name string) bool {
	ser, ok := s.series[name]
	if !ok {
		return false
	}

	clear(ser.samples)
	ser.samples = ser.samples[:0]
	return true
}

// ClearAll empties every series.
func (s *Store) ClearAll() {
	for _, ser := range s.series {
		clear(ser.samples)
		ser.samples = ser.samples[:0]
	}
}

// Names returns the known signal names in registration order.
func (s *Store) Names() []string {
	return slices.Clone(s.names)
}
