package testlog

import (
	"bytes"
	"testing"

	"github.com/danmuck/httpebble/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	logging.Infof("test=%s", t.Name())
}

// Capture redirects diagnostics into a buffer for the rest of the test.
func Capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	restore := logging.SetOutput(&buf)
	t.Cleanup(restore)
	return &buf
}
