package showdown

// Room represents a chat room.
type Room struct {
	Name string

	sender Sender
}

// NewRoom creates a room bound to sender. sender may be nil for rooms only
// used in comparisons.
func NewRoom(name string, sender Sender) *Room {
	return &Room{Name: name, sender: sender}
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return ToRoomID(r.Name)
}

func (r *Room) String() string {
	return r.Name
}

// Equals reports whether other names the same room. other may be a Room,
// a *Room or a room name; anything else is never equal.
func (r *Room) Equals(other any) bool {
	if r == nil {
		return false
	}
	switch o := other.(type) {
	case *Room:
		return o != nil && r.ID() == o.ID()
	case Room:
		return r.ID() == o.ID()
	case string:
		return r.ID() == ToRoomID(o)
	default:
		return false
	}
}

// Say sends a chat message to the room.
func (r *Room) Say(text string) error {
	if r.sender == nil {
		return ErrNotConnected
	}
	return r.sender.Say(text, r.Name)
}
