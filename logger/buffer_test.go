package logger_test

import (
	"testing"

	"github.com/joggr/joggr-client/logger"
	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	l := logger.NewBuffer()
	l.Info("hello %s", "world")
	func(x logger.Logger) {
		x.Debug("foo bar")
	}(l)
	assert.Equal(t, []string{
		"[info] hello world",
		"[debug] foo bar",
	}, l.Messages)
}

func TestBufferSnapshotIsACopy(t *testing.T) {
	l := logger.NewBuffer()
	l.WithFields(logger.StringField("seq", "1")).Notice("rendered")

	got := l.Snapshot()
	l.Warn("later")

	assert.Equal(t, []string{"[notice] rendered"}, got)
	assert.Len(t, l.Messages, 2)
}
