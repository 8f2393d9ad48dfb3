// Package notify surfaces panel events to the user.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notification is one user-facing event.
type Notification struct {
	Level     Level
	Title     string
	Message   string
	Timestamp time.Time
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// Helper constructors used throughout the panel.

// Info emits an informational notification.
func Info(n Notifier, title, format string, args ...interface{}) {
	emit(n, LevelInfo, title, format, args...)
}

// Success emits a success notification.
func Success(n Notifier, title, format string, args ...interface{}) {
	emit(n, LevelSuccess, title, format, args...)
}

// Warn emits a warning notification.
func Warn(n Notifier, title, format string, args ...interface{}) {
	emit(n, LevelWarn, title, format, args...)
}

// Error emits an error notification.
func Error(n Notifier, title, format string, args ...interface{}) {
	emit(n, LevelError, title, format, args...)
}

func emit(n Notifier, level Level, title, format string, args ...interface{}) {
	if n == nil {
		return
	}
	n.Notify(Notification{
		Level:     level,
		Title:     title,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
	})
}

// TerminalNotifier prints color-coded notifications to the terminal.
type TerminalNotifier struct {
	mu sync.Mutex
}

// NewTerminalNotifier creates a terminal notifier.
func NewTerminalNotifier() *TerminalNotifier {
	return &TerminalNotifier{}
}

var levelColors = map[Level]*color.Color{
	LevelInfo:    color.New(color.FgCyan),
	LevelSuccess: color.New(color.FgGreen, color.Bold),
	LevelWarn:    color.New(color.FgYellow),
	LevelError:   color.New(color.FgRed, color.Bold),
}

// Notify prints the notification.
func (t *TerminalNotifier) Notify(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := levelColors[n.Level]
	if !ok {
		c = levelColors[LevelInfo]
	}

	ts := n.Timestamp.Format("15:04:05")
	c.Printf("[%s] %s", ts, n.Title)
	if n.Message != "" {
		fmt.Printf(": %s", n.Message)
	}
	fmt.Println()
}

// NopNotifier discards every notification, used in tests.
type NopNotifier struct{}

// Notify is a no-op.
func (NopNotifier) Notify(Notification) {}
