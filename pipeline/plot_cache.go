package pipeline

import (
	"slices"
	"sync"
)

var _ PlotSink = (*PlotCache)(nil)

// PlotCache is a [PlotSink] keeping the last refreshed plot view.
// It is safe for concurrent use.
type PlotCache struct {
	mx        sync.RWMutex
	view      PlotView
	hasView   bool
	refreshes uint64
}

// NewPlotCache returns an empty plot cache.
func NewPlotCache() *PlotCache {
	return &PlotCache{}
}

// Refresh stores view as the current plot view.
func (c *PlotCache) Refresh(view PlotView) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.view = view
	c.hasView = true
	c.refreshes++
}

// Get returns a copy of the last refreshed view.
func (c *PlotCache) Get() (PlotView, bool) {
	c.mx.RLock()
	defer c.mx.RUnlock()

	view := c.view
	view.Samples = slices.Clone(c.view.Samples)
	return view, c.hasView
}

// Refreshes returns the number of received refreshes.
func (c *PlotCache) Refreshes() uint64 {
	c.mx.RLock()
	defer c.mx.RUnlock()

	return c.refreshes
}
