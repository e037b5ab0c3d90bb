package showdown

import "time"

// Message is a chat or private message received from another user.
type Message interface {
	// Author returns the sender.
	Author() *User
	// Content returns the message text.
	Content() string
	// Reply answers where the message came from: the room for chat
	// messages, a PM for private messages.
	Reply(text string) error
}

// ChatMessage is a message said in a room.
type ChatMessage struct {
	Room *Room
	User *User
	Text string
	// Time is the server timestamp, zero when the server sent none.
	Time time.Time
}

func (m *ChatMessage) Author() *User   { return m.User }
func (m *ChatMessage) Content() string { return m.Text }

// Reply says answer in the message's room.
func (m *ChatMessage) Reply(answer string) error {
	return m.Room.Say(answer)
}

// PrivateMessage is a message received in a PM.
type PrivateMessage struct {
	User *User
	Text string
}

func (m *PrivateMessage) Author() *User   { return m.User }
func (m *PrivateMessage) Content() string { return m.Text }

// Reply sends answer back to the sender.
func (m *PrivateMessage) Reply(answer string) error {
	return m.User.PM(answer)
}
