package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

const DefaultQueueSize = 256

// execBacklogSize bounds the events held back for an exec channel once the
// connection queue is full. Coalescing payloads keep it from filling quickly.
const execBacklogSize = 64

// Coalescer is implemented by payloads that can absorb the payload published
// after them on the same channel. merged is false when next must stay separate.
type Coalescer interface {
	Coalesce(next any) (merged any, ok bool)
}

// Sink is the transport side of a connection
type Sink interface {
	// Send writes one event to the connection. It is only called from the connection's writer goroutine.
	Send(event string, payload any) error
	// Close asks the transport to drop the connection
	Close()
}

// Relay forwards broadcasts to other server instances
type Relay interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, deliver func(channel string, payload []byte)) error
}

// Attributes is what a connection has announced about itself
type Attributes struct {
	Username string
	RoomID   string
}

type envelope struct {
	channel string
	payload any
}

type conn struct {
	id       string
	sink     Sink
	queue    chan envelope
	done     chan struct{}
	channels map[string]struct{}
	attrs    Attributes
	overflow atomic.Bool

	// exec output that did not fit in queue, sent once the queue drains
	backlogMu sync.Mutex
	backlog   []envelope
	wake      chan struct{}
}

// writer delivers queued events in publish order until the queue is closed.
// The exec backlog is only flushed when the queue is empty, so exec output
// keeps its order.
func (c *conn) writer() {
	defer close(c.done)
	for {
		select {
		case env, ok := <-c.queue:
			if !ok {
				c.flushBacklog()
				return
			}
			c.send(env)
		case <-c.wake:
		}
		if len(c.queue) == 0 {
			c.flushBacklog()
		}
	}
}

func (c *conn) send(env envelope) {
	if err := c.sink.Send(env.channel, env.payload); err != nil {
		log.Printf("[BROADCAST-ERROR] Sending %s to %s: %v", env.channel, c.id, err)
	}
}

func (c *conn) flushBacklog() {
	c.backlogMu.Lock()
	pending := c.backlog
	c.backlog = nil
	c.backlogMu.Unlock()

	for _, env := range pending {
		c.send(env)
	}
}

func (c *conn) push(env envelope) bool {
	select {
	case c.queue <- env:
		return true
	default:
		return false
	}
}

// pushExec queues exec output, falling back to the backlog when the queue is
// full. Once the backlog holds anything, later output goes there too.
func (c *conn) pushExec(env envelope) bool {
	c.backlogMu.Lock()
	defer c.backlogMu.Unlock()

	n := len(c.backlog)
	if n == 0 && c.push(env) {
		return true
	}
	if n > 0 && c.backlog[n-1].channel == env.channel {
		if prev, ok := c.backlog[n-1].payload.(Coalescer); ok {
			if merged, ok := prev.Coalesce(env.payload); ok {
				c.backlog[n-1].payload = merged
				return true
			}
		}
	}
	if n >= execBacklogSize {
		return false
	}
	c.backlog = append(c.backlog, env)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

// Router fans published events out to the connections subscribed to a channel.
// Each connection has its own queue and writer, so one slow connection does not
// hold back the others and each one sees events in publish order.
type Router struct {
	mu        sync.RWMutex
	conns     map[string]*conn
	channels  map[string]map[string]*conn
	queueSize int
	relay     Relay
}

func NewRouter(queueSize int) *Router {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Router{
		conns:     make(map[string]*conn),
		channels:  make(map[string]map[string]*conn),
		queueSize: queueSize,
	}
}

// WithRelay makes Publish also forward room and global channels to relay
func (r *Router) WithRelay(relay Relay) *Router {
	r.relay = relay
	return r
}

// StartRelay delivers broadcasts coming from other instances until ctx is done
func (r *Router) StartRelay(ctx context.Context) {
	if r.relay == nil {
		return
	}
	go func() {
		err := r.relay.Subscribe(ctx, func(channel string, payload []byte) {
			r.deliver(channel, json.RawMessage(payload))
		})
		if err != nil {
			log.Printf("[RELAY-ERROR] Relay subscription ended: %v", err)
		}
	}()
}

// Register adds a connection. Registering an id twice replaces the old connection.
func (r *Router) Register(id string, sink Sink) {
	c := &conn{
		id:       id,
		sink:     sink,
		queue:    make(chan envelope, r.queueSize),
		done:     make(chan struct{}),
		channels: make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
	}
	go c.writer()

	r.mu.Lock()
	old := r.conns[id]
	if old != nil {
		r.removeLocked(old)
	}
	r.conns[id] = c
	r.mu.Unlock()
}

func (r *Router) Subscribe(id, channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	subs, ok := r.channels[channel]
	if !ok {
		subs = make(map[string]*conn)
		r.channels[channel] = subs
	}
	subs[id] = c
	c.channels[channel] = struct{}{}
	return true
}

func (r *Router) Unsubscribe(id, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	r.unsubscribeLocked(c, channel)
}

func (r *Router) unsubscribeLocked(c *conn, channel string) {
	delete(c.channels, channel)
	if subs, ok := r.channels[channel]; ok {
		delete(subs, c.id)
		if len(subs) == 0 {
			delete(r.channels, channel)
		}
	}
}

// Publish queues payload for every subscriber of channel and returns how many were reached
func (r *Router) Publish(channel string, payload any) int {
	n := r.deliver(channel, payload)

	if r.relay != nil && !IsExec(channel) {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[RELAY-ERROR] Encoding payload for %s: %v", channel, err)
			return n
		}
		if err := r.relay.Publish(context.Background(), channel, data); err != nil {
			log.Printf("[RELAY-ERROR] Publishing %s: %v", channel, err)
		}
	}
	return n
}

func (r *Router) deliver(channel string, payload any) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, c := range r.channels[channel] {
		if c.overflow.Load() {
			continue
		}
		env := envelope{channel: channel, payload: payload}
		var queued bool
		if IsExec(channel) {
			queued = c.pushExec(env)
		} else {
			queued = c.push(env)
		}
		if queued {
			delivered++
			continue
		}
		// the connection cannot keep up, stop feeding it and let the transport drop it
		if c.overflow.CompareAndSwap(false, true) {
			log.Printf("[BROADCAST] Queue full for %s, dropping connection", c.id)
			go c.sink.Close()
		}
	}
	return delivered
}

func (r *Router) SetUsername(id, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.attrs.Username = username
	}
}

func (r *Router) SetRoom(id, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.attrs.RoomID = roomID
	}
}

func (r *Router) Attrs(id string) (Attributes, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return Attributes{}, false
	}
	return c.attrs, true
}

// Subscribers returns the number of connections subscribed to channel
func (r *Router) Subscribers(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}

// Disconnect removes the connection from every channel and returns what it had announced.
// Events already queued are still handed to the sink.
func (r *Router) Disconnect(id string) (Attributes, bool) {
	r.mu.Lock()
	c, ok := r.conns[id]
	if ok {
		r.removeLocked(c)
	}
	r.mu.Unlock()

	if !ok {
		return Attributes{}, false
	}
	return c.attrs, true
}

func (r *Router) removeLocked(c *conn) {
	for channel := range c.channels {
		r.unsubscribeLocked(c, channel)
	}
	delete(r.conns, c.id)
	close(c.queue)
}

// Close disconnects every connection and waits for their writers to finish
func (r *Router) Close() {
	r.mu.Lock()
	conns := make([]*conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
		r.removeLocked(c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		<-c.done
	}
}
