package irc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
)

// paramsHint is the conventional parameter cap. It only sizes the slice.
const paramsHint = 15

// ErrMalformedLine marks an inbound line that lacks a token its command needs.
// The session skips such lines instead of aborting.
var ErrMalformedLine = errors.New("malformed line")

// Message is one parsed protocol line
type Message struct {
	Raw     string   // Line as received, terminator included
	Prefix  string   // Sender, without the leading ':'
	Command string   // Protocol verb
	Params  []string // Middle params followed by the trailing param, if any
}

// ParseMessage splits a raw protocol line into prefix, command and params.
// It never fails: missing pieces are left empty. Offsets are byte offsets,
// and since every delimiter is ASCII a multi-byte UTF-8 sequence is never split.
func ParseMessage(raw string) Message {
	msg := Message{Raw: raw}

	rest := strings.TrimRight(raw, "\r\n")

	if strings.HasPrefix(rest, ":") {
		prefix, after, found := strings.Cut(rest[1:], " ")
		msg.Prefix = prefix
		if !found {
			// Prefix only, nothing to dispatch on
			return msg
		}
		rest = after
	}

	command, after, found := strings.Cut(rest, " ")
	msg.Command = command
	if !found {
		return msg
	}
	rest = after

	if rest == "" {
		return msg
	}

	msg.Params = make([]string, 0, paramsHint)
	for rest != "" {
		if strings.HasPrefix(rest, ":") {
			msg.Params = append(msg.Params, rest[1:])
			break
		}

		param, after, found := strings.Cut(rest, " ")
		msg.Params = append(msg.Params, param)
		if !found {
			break
		}
		rest = after
	}

	return msg
}

// Validate checks that the message has a command and at least n params
func (m Message) Validate(n int) error {
	if m.Command == "" {
		return fmt.Errorf("%w: no command in %q", ErrMalformedLine, strings.TrimRight(m.Raw, "\r\n"))
	}
	if len(m.Params) < n {
		return fmt.Errorf("%w: %s needs %d params, got %d", ErrMalformedLine, m.Command, n, len(m.Params))
	}
	for i, p := range m.Params {
		if strings.ContainsAny(p, "\r\n\x00") {
			return fmt.Errorf("%w: %s param %d contains a control byte", ErrMalformedLine, m.Command, i)
		}
	}
	return nil
}

// Nick returns the nickname part of the prefix. Server prefixes and anything
// else that is not a nick!user@host mask are returned unchanged.
func (m Message) Nick() string {
	if m.Prefix == "" {
		return ""
	}
	nuh, err := ircmsg.ParseNUH(m.Prefix)
	if err != nil || nuh.Name == "" {
		return m.Prefix
	}
	return nuh.Name
}
