package treeboard

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// NoticeLevel grades a user notification
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a message for the user-visible notification channel
type Notice struct {
	Level   NoticeLevel
	Op      string
	Message string
}

// Notifier surfaces command outcomes to the user (toast, banner, status line)
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logrus logger
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (l *LogNotifier) Notify(n Notice) {
	entry := l.Logger.WithField("op", n.Op)
	if n.Level == NoticeError {
		entry.Error(n.Message)
		return
	}
	entry.Info(n.Message)
}

// RecordingNotifier keeps every notice in memory
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *RecordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notices = append(r.notices, n)
}

// Notices returns the recorded notices in arrival order
func (r *RecordingNotifier) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
