package irc

import (
	"fmt"
	"strings"

	"github.com/dalnet/eirc/internal/metrics"
)

const (
	realName    = "eIRC bot"
	pingTrigger = ".ping"
	pingReply   = "PONG right in yo face!"
)

// dispatch routes a message to its handler. Only PING and PRIVMSG are
// handled; everything else is ignored.
func (s *Session) dispatch(msg Message) error {
	switch msg.Command {
	case "PING":
		return s.onPing(msg)
	case "PRIVMSG":
		return s.onPrivMsg(msg)
	}
	return nil
}

// PING <token> -> PONG :<token>
func (s *Session) onPing(msg Message) error {
	if err := msg.Validate(1); err != nil {
		return err
	}
	return s.out.Send("PONG :" + msg.Params[0])
}

// PRIVMSG <target> :.ping... -> PRIVMSG <target> :<canned reply>
func (s *Session) onPrivMsg(msg Message) error {
	if err := msg.Validate(2); err != nil {
		return err
	}

	target := msg.Params[0]
	text := msg.Params[1]
	if !strings.HasPrefix(text, pingTrigger) {
		return nil
	}

	if err := s.out.Sendf("PRIVMSG %s :%s", target, pingReply); err != nil {
		return err
	}
	metrics.Triggers.WithLabelValues(pingTrigger).Inc()
	s.log.Debug("Answered trigger", "trigger", pingTrigger, "nick", msg.Nick(), "target", target)

	if s.recorder != nil {
		if err := s.recorder.Record(msg.Nick(), fmt.Sprintf("%s in %s", text, target)); err != nil {
			s.log.Error("Error recording trigger", err)
		}
	}
	return nil
}
