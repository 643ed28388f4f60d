package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/capitalg/output"
)

// TimingCollector collects a tree of timings.
type TimingCollector struct {
	mu      sync.Mutex
	root    *timerNode
	current *timerNode
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	parent   *timerNode
	children []*timerNode
}

func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

// NewTimingCollector creates a new timing collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Start begins timing an operation. The first timer becomes the root, later
// timers nest under the innermost timer that is still running.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: time.Now()}
	if c.root == nil {
		c.root = node
	} else {
		node.parent = c.current
		c.current.children = append(c.current.children, node)
	}
	c.current = node

	return &timingTimer{collector: c, node: node}
}

// Report writes the timing tree to w.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return
	}
	formatTimingTree(w, c.root, styles)
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

func (t *timingTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	t.node.end = time.Now()
	if t.collector.current == t.node && t.node.parent != nil {
		t.collector.current = t.node.parent
	}
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	node := &timerNode{name: name, start: time.Now(), parent: t.node}
	t.node.children = append(t.node.children, node)

	return &timingTimer{collector: t.collector, node: node}
}
