package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSendWithoutHostOnlyLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(Config{FromAddress: "noreply@x.edu"}, zap.New(core))

	assert.NoError(t, m.Send(context.Background(), "a@x.edu", "Reset", "<p>hi</p>"))
	entries := logs.FilterMessage("smtp not configured, email skipped").All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "a@x.edu", entries[0].ContextMap()["to"])
}

func TestSendHonoursCancelledContext(t *testing.T) {
	m := New(Config{Host: "smtp.invalid", Port: 587}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "a@x.edu", "Reset", "<p>hi</p>"), context.Canceled)
}
