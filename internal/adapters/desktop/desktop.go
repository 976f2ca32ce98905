// Package desktop hands deep links and clipboard text to the host OS.
package desktop

import (
	"errors"
	"log/slog"
	"net/url"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
)

var ErrNoClipboard = errors.New("no clipboard utility found")

// Launcher opens URIs with the platform handler.
type Launcher struct {
	open   func(uri string) error
	logger *slog.Logger
}

func NewLauncher(logger *slog.Logger) *Launcher {
	return &Launcher{open: browser.OpenURL, logger: logger}
}

// Launch asks the OS to open uri. Failures are logged only: once the partner
// issued the link there is nothing left to roll back.
func (l *Launcher) Launch(uri string) {
	if err := l.open(uri); err != nil {
		l.logger.Error("failed to open deep link", "target", redactURI(uri), "error", err)
		return
	}
	l.logger.Info("deep link opened", "target", redactURI(uri))
}

// LoggingLauncher records that a link was issued instead of opening it. The
// HTTP service uses it: the caller receives the link in the response.
type LoggingLauncher struct {
	logger *slog.Logger
}

func NewLoggingLauncher(logger *slog.Logger) *LoggingLauncher {
	return &LoggingLauncher{logger: logger}
}

func (l *LoggingLauncher) Launch(uri string) {
	l.logger.Info("deep link handed to caller", "target", redactURI(uri))
}

// redactURI keeps scheme and host; path and query may carry session data.
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return "unparseable"
	}
	if u.Host == "" {
		return u.Scheme + ":"
	}
	return u.Scheme + "://" + u.Host
}

// Clipboard writes text to the system clipboard.
type Clipboard struct {
	unsupported bool
	write       func(text string) error
}

func NewClipboard() *Clipboard {
	return &Clipboard{unsupported: clipboard.Unsupported, write: clipboard.WriteAll}
}

func (c *Clipboard) Copy(text string) error {
	if c.unsupported {
		return ErrNoClipboard
	}
	return c.write(text)
}
