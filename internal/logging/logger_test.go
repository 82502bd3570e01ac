package logging

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/kitapunya/expense-backend/internal/api/http/middleware"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	fn()
	return buf.String()
}

func TestLogger_UsesRequestIDFromContext(t *testing.T) {
	ctx := middleware.WithRequestID(context.Background(), "rid-42")

	out := captureLog(t, func() {
		New(ctx).Infof("resolve", "identity=%s", "a@x.com")
	})

	assert.Contains(t, out, "[info] request_id=rid-42 operation=resolve identity=a@x.com")
}

func TestLogger_DefaultsWithoutRequestID(t *testing.T) {
	out := captureLog(t, func() {
		New(context.Background()).Error("append", errors.New("boom"))
	})

	assert.Contains(t, out, "[error] request_id=- operation=append error=boom")
}
