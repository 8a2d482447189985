package feedback

import "sync"

// Controller is the enable/disable switch shared by the engine and the
// outer surfaces (signals, CLI). It also carries kill requests.
type Controller struct {
	mu        sync.Mutex
	enabled   bool
	stopping  bool
	stopErr   error
	done      chan struct{}
	onDisable []func()
}

// NewController constructs a controller in the given state.
func NewController(enabled bool) *Controller {
	return &Controller{
		enabled: enabled,
		done:    make(chan struct{}),
	}
}

// OnDisable registers fn to run each time the controller turns off.
func (c *Controller) OnDisable(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onDisable = append(c.onDisable, fn)
	c.mu.Unlock()
}

// Enable turns classification on.
func (c *Controller) Enable() {
	c.mu.Lock()
	c.enabled = true
	c.mu.Unlock()
}

// Disable turns classification off. Registered hooks run on the transition.
func (c *Controller) Disable() {
	c.mu.Lock()
	wasEnabled := c.enabled
	c.enabled = false
	hooks := c.onDisable
	c.mu.Unlock()
	if !wasEnabled {
		return
	}
	for _, fn := range hooks {
		fn()
	}
}

// Toggle flips the switch and returns the new state.
func (c *Controller) Toggle() bool {
	if c.Enabled() {
		c.Disable()
		return false
	}
	c.Enable()
	return true
}

// Enabled reports whether events are classified.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Kill requests the engine to stop and propagates an optional error.
func (c *Controller) Kill(err error) {
	c.mu.Lock()
	first := !c.stopping
	c.stopping = true
	if err != nil && c.stopErr == nil {
		c.stopErr = err
	}
	c.mu.Unlock()
	if first {
		close(c.done)
	}
}

// Done is closed by the first Kill.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns the error passed to Kill, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopErr
}

// State reports the textual state for diagnostics.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.stopping:
		return "stopping"
	case c.enabled:
		return "enabled"
	default:
		return "disabled"
	}
}
