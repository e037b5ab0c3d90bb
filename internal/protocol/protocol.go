package protocol

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/luciancaetano/showdown"
)

// Frame is one decoded inbound frame.
type Frame struct {
	Room    string
	Command string
	Payload string
}

// Codec decodes inbound frames and encodes outbound ones.
// DefaultRoom is the room of frames without a header, and the room sent
// without a prefix.
type Codec struct {
	DefaultRoom string
}

// evalPattern matches the admin eval markers the server looks for.
var evalPattern = regexp.MustCompile(`>>>? `)

// Decode splits raw into its room header, command and payload.
//
// A frame is an optional ">ROOM\n" header followed by a body. A body of the
// form "|COMMAND|PAYLOAD" yields COMMAND and PAYLOAD, where PAYLOAD may
// contain further pipes and newlines. Any other body is returned whole as
// the payload of the empty command, as is a frame whose header names no
// room. Only invalid UTF-8 is malformed.
func (c Codec) Decode(raw string) (Frame, error) {
	if !utf8.ValidString(raw) {
		return Frame{}, errors.Wrap(showdown.ErrMalformedFrame, "invalid utf-8")
	}

	room, body := "", raw
	if strings.HasPrefix(raw, ">") {
		if header, rest, ok := strings.Cut(raw[1:], "\n"); ok && header != "" {
			room, body = header, rest
		}
	}
	if room == "" {
		room = c.DefaultRoom
	}

	frame := Frame{Room: room, Payload: body}
	if rest, ok := strings.CutPrefix(body, "|"); ok {
		if command, payload, ok := strings.Cut(rest, "|"); ok && command != "" {
			frame.Command = command
			frame.Payload = payload
		}
	}
	return frame, nil
}

// EncodeCommand formats "/command argument" for room.
func (c Codec) EncodeCommand(room, command, argument string) string {
	return c.prefix(room) + "|/" + command + " " + argument
}

// EncodeChat formats a chat message for room, escaping text with EscapeChat.
func (c Codec) EncodeChat(room, text string) string {
	return c.prefix(room) + "|" + EscapeChat(text)
}

// prefix returns the room part of an outbound frame. The default room is
// sent as the empty prefix, which the server accepts as shorthand.
func (c Codec) prefix(room string) string {
	if room == "" || room == c.DefaultRoom {
		return ""
	}
	return room
}

// EscapeChat keeps the server from interpreting text as something other
// than chat. A leading slash is doubled; otherwise text starting with "!"
// or containing an eval marker (">> " or ">>> ") gets a leading space.
func EscapeChat(text string) string {
	if strings.HasPrefix(text, "/") {
		return "/" + text
	}
	if strings.HasPrefix(text, "!") || evalPattern.MatchString(text) {
		return " " + text
	}
	return text
}

// ParseChallenge parses a challstr payload ("KEYID|CHALLENGE").
func ParseChallenge(payload string) (showdown.Challenge, error) {
	keyID, value, ok := strings.Cut(payload, "|")
	if !ok || keyID == "" {
		return showdown.Challenge{}, errors.Wrapf(showdown.ErrMalformedFrame, "challstr payload %q", payload)
	}
	return showdown.Challenge{KeyID: keyID, Value: value}, nil
}

// ParseUpdateUser returns the name field of an updateuser payload.
func ParseUpdateUser(payload string) string {
	name, _, _ := strings.Cut(payload, "|")
	return name
}

// Chat is a parsed chat payload.
type Chat struct {
	Time time.Time
	User string
	Text string
}

// ParseChat parses a "c:" payload ("TIMESTAMP|USER|TEXT"). TEXT keeps any
// pipes it contains. An unparsable timestamp leaves Time zero.
func ParseChat(payload string) (Chat, error) {
	parts := strings.SplitN(payload, "|", 3)
	if len(parts) < 3 {
		return Chat{}, errors.Wrapf(showdown.ErrMalformedFrame, "chat payload %q", payload)
	}
	chat := Chat{User: parts[1], Text: parts[2]}
	if ts, err := strconv.ParseInt(parts[0], 10, 64); err == nil {
		chat.Time = time.Unix(ts, 0)
	}
	return chat, nil
}

// ParseChatNoTime parses a "c" payload ("USER|TEXT").
func ParseChatNoTime(payload string) (Chat, error) {
	user, text, ok := strings.Cut(payload, "|")
	if !ok {
		return Chat{}, errors.Wrapf(showdown.ErrMalformedFrame, "chat payload %q", payload)
	}
	return Chat{User: user, Text: text}, nil
}

// PM is a parsed private message payload.
type PM struct {
	Sender string
	Target string
	Text   string
}

// ParsePM parses a "pm" payload ("SENDER|TARGET|TEXT"). TEXT keeps any
// pipes it contains.
func ParsePM(payload string) (PM, error) {
	parts := strings.SplitN(payload, "|", 3)
	if len(parts) < 3 {
		return PM{}, errors.Wrapf(showdown.ErrMalformedFrame, "pm payload %q", payload)
	}
	return PM{Sender: parts[0], Target: parts[1], Text: parts[2]}, nil
}
