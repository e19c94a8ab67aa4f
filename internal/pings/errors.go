package pings

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// What a NotFoundError refers to. The handler picks the user-facing text from it.
const (
	MissingRecord  = "record"
	MissingChannel = "channel"
	MissingMessage = "message"
	MissingEmbed   = "embed"
)

// FormatError reports malformed user input such as a bad date or time.
type FormatError struct {
	MessageID string // i18n message id shown to the user
	Expected  string // pattern the input should follow
	Input     string
}

func (e *FormatError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("invalid date/time values %q", e.Input)
	}
	return fmt.Sprintf("bad format %q: use '%s' ET", e.Input, e.Expected)
}

// NotFoundError reports a missing record, channel, message or embed.
type NotFoundError struct {
	What      string
	ChannelID string
	Err       error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found in channel %s: %v", e.What, e.ChannelID, e.Err)
	}
	return fmt.Sprintf("%s not found in channel %s", e.What, e.ChannelID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// PlatformError wraps a failed Discord or Telegram call.
type PlatformError struct {
	Platform string
	Op       string
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

func discordError(op string, err error) error {
	return &PlatformError{Platform: "discord", Op: op, Err: err}
}
