package gateway

// Invalidation is emitted after a 401 cleared the session.
type Invalidation struct {
	Method     string
	Path       string
	Generation uint64
}

// OnInvalidated registers fn to run after every applied invalidation and
// returns a function that removes it. fn runs on the calling goroutine of the
// rejected request.
func (c *Client) OnInvalidated(fn func(Invalidation)) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Client) emit(ev Invalidation) {
	c.listenersMu.Lock()
	fns := make([]func(Invalidation), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
