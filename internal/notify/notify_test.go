package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinderella/internal/core"
)

func intPtr(i int) *int { return &i }

func TestFailureMessage_ExitCode(t *testing.T) {
	failed := core.Failed{Steps: []core.StepResult{
		{Status: core.StepSuccess, Command: "echo hi", Output: "hi\n"},
		{Status: core.StepFailure, Command: "make test", Output: "FAIL\n", ExitCode: intPtr(2)},
	}}

	subject, body := FailureMessage("cinderella", failed)

	assert.Equal(t, "Build failed: cinderella", subject)
	assert.Equal(t, "Build failed: make test\nExited with status code: 2\n\nhi\nFAIL\n", body)
}

func TestFailureMessage_Signal(t *testing.T) {
	failed := core.Failed{Steps: []core.StepResult{
		{Status: core.StepFailure, Command: "sleep 100", Output: "", Signaled: true},
	}}

	_, body := FailureMessage("p", failed)

	assert.Equal(t, "Build failed: sleep 100\nProcess terminated by signal\n\n", body)
}

func TestFailureMessage_NotStarted(t *testing.T) {
	result := (&core.Executor{}).RunStep(context.Background(), core.NewCommand(core.Tokenize("no-such-program-cinderella")))
	failed := core.Failed{Steps: []core.StepResult{result}}

	_, body := FailureMessage("p", failed)

	assert.True(t, strings.HasPrefix(body, "Build failed: no-such-program-cinderella\n\ncannot start no-such-program-cinderella"), body)
	assert.NotContains(t, body, "signal")
	assert.NotContains(t, body, "status code")
}

func TestSMTPNotify(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := NewSMTP(SMTPConfig{
		Server: "mail.example.com",
		User:   "ci",
		From:   "ci@example.com",
		To:     []string{"dev@example.com", "ops@example.com"},
	})
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, n.Notify(context.Background(), "Build failed: p", "line one\nline two\n"))

	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, "ci@example.com", gotFrom)
	assert.Equal(t, []string{"dev@example.com", "ops@example.com"}, gotTo)
	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Build failed: p\r\n")
	assert.Contains(t, msg, "To: dev@example.com, ops@example.com\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline one\r\nline two\r\n"))
}

func TestSMTPNotify_Errors(t *testing.T) {
	n := NewSMTP(SMTPConfig{Server: "localhost", Port: 25, From: "a@b"})
	assert.ErrorContains(t, n.Notify(context.Background(), "s", "b"), "no recipients")

	n.Config.To = []string{"x@y"}
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err := n.Notify(context.Background(), "s", "b")
	assert.ErrorContains(t, err, "localhost:25")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, "s", "b"), context.Canceled)
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(context.Background(), "s", "b"))
}
