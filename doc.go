// Package showdown is a client library for the Pokémon Showdown chat
// protocol.
//
// A Client keeps one websocket connection to a Showdown server, logs in
// with a registered account, and turns the server's pipe-delimited frames
// into typed events. Outbound frames go through a rate gate so the server
// never sees more than one frame per message delay.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/showdown"
//	    "github.com/luciancaetano/showdown/client"
//	)
//
//	c := client.New(client.DefaultConfig())
//
//	c.On(showdown.KindMessage, func(ev showdown.Event) {
//	    msg := ev.(showdown.MessageEvent).Message
//	    msg.Reply("you said: " + msg.Content())
//	})
//
//	if err := c.Connect(ctx, "showdown"); err != nil {
//	    return err
//	}
//	if err := c.Login(ctx, "MyBot", password); err != nil {
//	    return err
//	}
//	c.JoinRoom("techcode")
//
// # Protocol Format
//
// Every inbound websocket text frame has the shape:
//
//	[">ROOM\n"]|COMMAND|PAYLOAD
//
// The room header is optional; frames without it belong to the default
// room ("lobby"). PAYLOAD may contain further pipes and newlines. Bodies
// that do not start with "|COMMAND|" are delivered with the empty command.
//
// Outbound frames are "ROOM|TEXT" for chat and "ROOM|/COMMAND ARGUMENT" for
// commands, where the default room is sent as the empty prefix.
//
// # Events
//
// Every decoded frame is emitted twice, as a RawEvent (KindRaw) and as a
// CommandEvent (RawKind(command)). Chat ("c:" and "c") and private
// message ("pm") frames additionally produce ChatEvent/PMEvent and a
// MessageEvent, except for messages sent by the client's own user.
//
// # Login
//
// Login waits for the server's challstr, exchanges it together with the
// credentials for an assertion at the login server, sends "/trn" and
// returns once the server acknowledges the new name with updateuser.
//
// # Important
//
//   - Handlers run synchronously on the connection's read goroutine, in
//     registration order. Do not call Login from a handler.
//   - Frames queued but not yet sent when the client disconnects are
//     dropped.
//   - Own messages are recognised only after the server's updateuser.
package showdown
