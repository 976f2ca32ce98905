package desktop

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"instore-payment-client/internal/core/ports"
)

var (
	_ ports.URILauncher = (*Launcher)(nil)
	_ ports.URILauncher = (*LoggingLauncher)(nil)
	_ ports.Clipboard   = (*Clipboard)(nil)
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestLauncher_OpensURI(t *testing.T) {
	logger, buf := bufferLogger()
	var opened []string
	l := &Launcher{open: func(uri string) error { opened = append(opened, uri); return nil }, logger: logger}

	l.Launch("iyzico://instore/checkout?paymentId=42")

	assert.Equal(t, []string{"iyzico://instore/checkout?paymentId=42"}, opened)
	assert.NotContains(t, buf.String(), "paymentId")
}

func TestLauncher_OpenFailureIsLoggedOnly(t *testing.T) {
	logger, buf := bufferLogger()
	l := &Launcher{open: func(string) error { return errors.New("no handler") }, logger: logger}

	l.Launch("iyzico://instore/checkout?paymentId=42")

	assert.Contains(t, buf.String(), "no handler")
	assert.NotContains(t, buf.String(), "paymentId")
}

func TestLoggingLauncher_LogsSchemeAndHostOnly(t *testing.T) {
	logger, buf := bufferLogger()

	NewLoggingLauncher(logger).Launch("iyzico://instore/checkout?paymentId=42&session=secret")

	assert.Contains(t, buf.String(), "target=iyzico://instore")
	assert.NotContains(t, buf.String(), "secret")
	assert.NotContains(t, buf.String(), "checkout")
}

func TestRedactURI(t *testing.T) {
	assert.Equal(t, "https://pay.example", redactURI("https://pay.example/x?token=1"))
	assert.Equal(t, "mailto:", redactURI("mailto:someone@example.com"))
	assert.Equal(t, "unparseable", redactURI("no scheme here"))
	assert.Equal(t, "unparseable", redactURI("%zz"))
}

func TestClipboard_WritesText(t *testing.T) {
	var got string
	c := &Clipboard{write: func(text string) error { got = text; return nil }}

	err := c.Copy("data: x\npaymentSessionToken: y")

	assert.NoError(t, err)
	assert.Equal(t, "data: x\npaymentSessionToken: y", got)
}

func TestClipboard_Unsupported(t *testing.T) {
	c := &Clipboard{unsupported: true, write: func(string) error { t.Fatal("write called"); return nil }}

	assert.ErrorIs(t, c.Copy("text"), ErrNoClipboard)
}
