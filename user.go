package showdown

// User represents a user as seen by a Client.
type User struct {
	Name string

	sender Sender
}

// NewUser creates a user bound to sender. sender may be nil for users only
// used in comparisons.
func NewUser(name string, sender Sender) *User {
	return &User{Name: name, sender: sender}
}

// ID returns the user's identifier.
func (u *User) ID() string {
	return ToID(u.Name)
}

func (u *User) String() string {
	return u.Name
}

// Equals reports whether other names the same user. other may be a User,
// a *User or a user name; anything else is never equal.
func (u *User) Equals(other any) bool {
	if u == nil {
		return false
	}
	switch o := other.(type) {
	case *User:
		return o != nil && u.ID() == o.ID()
	case User:
		return u.ID() == o.ID()
	case string:
		return u.ID() == ToID(o)
	default:
		return false
	}
}

// PM sends a private message to the user.
func (u *User) PM(text string) error {
	if u.sender == nil {
		return ErrNotConnected
	}
	return u.sender.Send(CmdPM, u.ID()+","+escapeCommand(text), "")
}

// escapeCommand doubles a leading slash so text is not run as a command.
func escapeCommand(text string) string {
	if len(text) > 0 && text[0] == '/' {
		return "/" + text
	}
	return text
}
