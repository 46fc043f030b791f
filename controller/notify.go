package controller

import (
	"fmt"
	"io"
	"sync"

	"github.com/joggr/joggr-client/logger"
)

// Severity of a Notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// Notification is a non-blocking, user-visible notice.
type Notification struct {
	Severity Severity
	Text     string
	Err      error
}

// Notifier surfaces messages to the user.
type Notifier interface {
	// Alert shows a message the user must acknowledge. The controller
	// does not process further events until Alert returns.
	Alert(msg string)

	// Notify shows a notice without interrupting the user. It must not
	// block.
	Notify(n Notification)
}

// LogNotifier sends notifications to a logger.
type LogNotifier struct {
	Logger logger.Logger
}

func (n LogNotifier) Alert(msg string) {
	n.Logger.Notice("%s", msg)
}

func (n LogNotifier) Notify(note Notification) {
	if note.Severity == SeverityError {
		n.Logger.Error("%s", note.Text)
		return
	}
	n.Logger.Info("%s", note.Text)
}

// WriterNotifier prints notifications as lines on a writer, the
// terminal's stand-in for alert boxes and toasts.
type WriterNotifier struct {
	W io.Writer

	mu sync.Mutex
}

func (n *WriterNotifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.W, "[alert] %s\n", msg)
}

func (n *WriterNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.W, "[%s] %s\n", note.Severity, note.Text)
}

// RecordingNotifier keeps every notification, for tests.
type RecordingNotifier struct {
	mu            sync.Mutex
	Alerts        []string
	Notifications []Notification
}

func (n *RecordingNotifier) Alert(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Alerts = append(n.Alerts, msg)
}

func (n *RecordingNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notifications = append(n.Notifications, note)
}

// Snapshot returns copies of the alerts and notifications so far.
func (n *RecordingNotifier) Snapshot() ([]string, []Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Alerts...), append([]Notification(nil), n.Notifications...)
}
