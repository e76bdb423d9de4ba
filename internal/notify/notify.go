// Package notify delivers rendered reports.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fortuna/btts/internal/report"
)

// Notifier delivers one rendered payload.
type Notifier interface {
	Notify(ctx context.Context, payload string) error
}

// Console prints payloads as plain text. It is the dry-run sink.
type Console struct {
	W io.Writer
}

// NewConsole writes to stdout.
func NewConsole() *Console {
	return &Console{W: os.Stdout}
}

// Notify implements Notifier.
func (c *Console) Notify(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := report.PlainText(payload)
	if err != nil {
		return fmt.Errorf("render plain text: %w", err)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err = io.WriteString(c.W, text)
	return err
}
