package showdown

import "strings"

// ToID converts a name to the identifier Showdown uses for users, formats
// and most other lookups: lower-cased, keeping only [a-z0-9].
func ToID(name string) string {
	return strings.Map(func(r rune) rune {
		if isIDRune(r) {
			return r
		}
		return -1
	}, strings.ToLower(name))
}

// ToRoomID converts a name to a room identifier. It is ToID, except that
// hyphens are kept.
func ToRoomID(name string) string {
	return strings.Map(func(r rune) rune {
		if isIDRune(r) || r == '-' {
			return r
		}
		return -1
	}, strings.ToLower(name))
}

func isIDRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
