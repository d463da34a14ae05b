package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	treeboard "github.com/ideamans/go-treeboard"
)

// ChannelNotifier queues controller notices for the dashboard status line.
// Notify never blocks. When more than size notices are waiting the oldest
// informational one is discarded, so errors survive a burst of successes.
type ChannelNotifier struct {
	mu      sync.Mutex
	size    int
	pending []treeboard.Notice
	ready   chan struct{}
}

// NewChannelNotifier creates a notifier holding up to size undelivered notices
func NewChannelNotifier(size int) *ChannelNotifier {
	if size < 1 {
		size = 1
	}
	return &ChannelNotifier{size: size, ready: make(chan struct{}, 1)}
}

func (n *ChannelNotifier) Notify(notice treeboard.Notice) {
	n.mu.Lock()
	n.pending = append(n.pending, notice)
	if len(n.pending) > n.size {
		n.pending = evict(n.pending)
	}
	n.mu.Unlock()

	select {
	case n.ready <- struct{}{}:
	default:
	}
}

// evict removes the oldest informational notice, or the oldest notice
// when every one is an error
func evict(queue []treeboard.Notice) []treeboard.Notice {
	drop := 0
	for i, q := range queue {
		if q.Level != treeboard.NoticeError {
			drop = i
			break
		}
	}
	return append(queue[:drop], queue[drop+1:]...)
}

// Ready is signalled whenever notices are waiting to be drained
func (n *ChannelNotifier) Ready() <-chan struct{} {
	return n.ready
}

// Drain returns the waiting notices in arrival order and empties the queue
func (n *ChannelNotifier) Drain() []treeboard.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}

// noticeMsg carries every notice that arrived since the last delivery
type noticeMsg []treeboard.Notice

// latest picks the notice to show: the last error, else the last notice
func (msg noticeMsg) latest() (treeboard.Notice, bool) {
	for i := len(msg) - 1; i >= 0; i-- {
		if msg[i].Level == treeboard.NoticeError {
			return msg[i], true
		}
	}
	if len(msg) == 0 {
		return treeboard.Notice{}, false
	}
	return msg[len(msg)-1], true
}

func waitForNotice(n *ChannelNotifier) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		<-n.ready
		return noticeMsg(n.Drain())
	}
}
