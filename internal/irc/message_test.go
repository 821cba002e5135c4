package irc

import (
	"errors"
	"testing"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		prefix  string
		command string
		params  []string
	}{
		{
			name:    "privmsg with prefix and trailing",
			raw:     ":nick!user@host PRIVMSG #chan :hello world",
			prefix:  "nick!user@host",
			command: "PRIVMSG",
			params:  []string{"#chan", "hello world"},
		},
		{
			name:    "ping with trailing",
			raw:     "PING :server.example.com",
			command: "PING",
			params:  []string{"server.example.com"},
		},
		{
			name:    "crlf is not part of params",
			raw:     "PING :server.example.com\r\n",
			command: "PING",
			params:  []string{"server.example.com"},
		},
		{
			name:    "middle params only",
			raw:     ":irc.server 001 eirc Welcome\r\n",
			prefix:  "irc.server",
			command: "001",
			params:  []string{"eirc", "Welcome"},
		},
		{
			name:    "middle and trailing",
			raw:     ":srv 353 eirc = #chan :a b c",
			prefix:  "srv",
			command: "353",
			params:  []string{"eirc", "=", "#chan", "a b c"},
		},
		{
			name:    "trailing keeps inner colons",
			raw:     "PRIVMSG #x :see: http://example.com",
			command: "PRIVMSG",
			params:  []string{"#x", "see: http://example.com"},
		},
		{
			name:    "empty trailing",
			raw:     "PRIVMSG #x :",
			command: "PRIVMSG",
			params:  []string{"#x", ""},
		},
		{
			name:    "bare command",
			raw:     "QUIT\r\n",
			command: "QUIT",
		},
		{
			name:    "command with trailing space",
			raw:     "PING ",
			command: "PING",
		},
		{
			name:   "prefix without command",
			raw:    ":lonely.prefix\r\n",
			prefix: "lonely.prefix",
		},
		{
			name: "empty line",
			raw:  "\r\n",
		},
		{
			name:    "double space yields empty param",
			raw:     "MODE  +i",
			command: "MODE",
			params:  []string{"", "+i"},
		},
		{
			name:    "multi-byte text survives",
			raw:     ":n!u@h PRIVMSG #chan :héllo wörld ✓",
			prefix:  "n!u@h",
			command: "PRIVMSG",
			params:  []string{"#chan", "héllo wörld ✓"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ParseMessage(tt.raw)

			assert.Equal(t, tt.raw, msg.Raw)
			assert.Equal(t, tt.prefix, msg.Prefix)
			assert.Equal(t, tt.command, msg.Command)
			if len(tt.params) == 0 {
				assert.Empty(t, msg.Params)
			} else {
				assert.Equal(t, tt.params, msg.Params)
			}
		})
	}
}

func TestParseMessageNoPrefixMarker(t *testing.T) {
	for _, raw := range []string{"PING :x", "NOTICE AUTH :*** hi", "x:y z", " :a b"} {
		assert.Empty(t, ParseMessage(raw).Prefix, raw)
	}
}

func TestParseMessageIdempotent(t *testing.T) {
	for _, raw := range []string{
		":nick!user@host PRIVMSG #chan :hello world\r\n",
		"PING :server.example.com",
		":only",
		"QUIT",
		"",
	} {
		first := ParseMessage(raw)
		assert.Equal(t, first, ParseMessage(first.Raw), raw)
	}
}

func TestParseMessageManyParams(t *testing.T) {
	msg := ParseMessage("CMD 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 :last one")
	require.Len(t, msg.Params, 18)
	assert.Equal(t, "last one", msg.Params[17])
}

// Well-formed lines must parse the same way ircmsg parses them
func TestParseMessageMatchesIrcmsg(t *testing.T) {
	for _, raw := range []string{
		":nick!user@host PRIVMSG #chan :hello world",
		"PING :server.example.com",
		":irc.server 001 eirc :Welcome to the network",
		":a!b@c JOIN #x",
		":srv 353 eirc = #chan :a b c",
	} {
		ours := ParseMessage(raw)
		ref, err := ircmsg.ParseLine(raw)
		require.NoError(t, err, raw)

		assert.Equal(t, ref.Source, ours.Prefix, raw)
		assert.Equal(t, ref.Command, ours.Command, raw)
		assert.Equal(t, ref.Params, ours.Params, raw)
	}
}

func TestMessageValidate(t *testing.T) {
	assert.NoError(t, ParseMessage("PING :x").Validate(1))

	err := ParseMessage("PING\r\n").Validate(1)
	assert.True(t, errors.Is(err, ErrMalformedLine))

	err = ParseMessage("PRIVMSG #x").Validate(2)
	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.Contains(t, err.Error(), "PRIVMSG needs 2 params, got 1")

	err = ParseMessage(":prefix.only").Validate(0)
	assert.ErrorIs(t, err, ErrMalformedLine)

	// Params are echoed back, so they must not carry framing bytes
	err = ParseMessage("PING :tok\x00en").Validate(1)
	assert.ErrorIs(t, err, ErrMalformedLine)
	err = ParseMessage(":a!b@c PRIVMSG #x\ry :.ping").Validate(2)
	assert.ErrorIs(t, err, ErrMalformedLine)
	err = ParseMessage("PING :a\nb").Validate(1)
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestMessageNick(t *testing.T) {
	assert.Equal(t, "nick", ParseMessage(":nick!user@host PRIVMSG #x :hi").Nick())
	assert.Equal(t, "", ParseMessage("PING :x").Nick())
}
