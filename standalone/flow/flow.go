// Package flow implements rate-limited REQUEST backpressure for the command
// queue.
package flow

import "penarm/core"

// Queue is the part of the command queue the controller watches
type Queue interface {
	IsLow(threshold int) bool
}

// Controller asks the host for more commands while the queue is low, at most
// once per interval
type Controller struct {
	queue     Queue
	threshold int
	interval  uint32
	onRequest func()

	last      uint32
	requested bool
	requests  uint32
}

// New creates a controller. onRequest runs each time a request is due.
func New(queue Queue, threshold int, intervalMS uint32, onRequest func()) *Controller {
	return &Controller{
		queue:     queue,
		threshold: threshold,
		interval:  intervalMS,
		onRequest: onRequest,
	}
}

// Tick evaluates the policy at time now and reports whether a request was
// emitted
func (c *Controller) Tick(now uint32) bool {
	if !c.queue.IsLow(c.threshold) {
		return false
	}
	if c.requested && core.Since(now, c.last) <= c.interval {
		return false
	}

	c.last = now
	c.requested = true
	c.requests++
	if c.onRequest != nil {
		c.onRequest()
	}
	return true
}

// Requests returns how many requests have been emitted
func (c *Controller) Requests() uint32 {
	return c.requests
}

// LastRequest returns the time of the last request and whether one was made
func (c *Controller) LastRequest() (uint32, bool) {
	return c.last, c.requested
}

// Reset forgets the last request so the next low tick requests immediately
func (c *Controller) Reset() {
	c.requested = false
	c.last = 0
}
