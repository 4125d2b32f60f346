package realtime

import "math/rand"

// Room codes are 4 characters from a glyph set without ambiguous
// look-alikes (no I/O/0/1), matching the relay's room naming scheme.
const roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLen = 4

// NewRoomCode generates a random room code.
func NewRoomCode() string {
	code := make([]byte, roomCodeLen)
	for i := range code {
		code[i] = roomCodeChars[rand.Intn(len(roomCodeChars))]
	}
	return string(code)
}

// ValidRoomCode reports whether s is a well-formed room code.
func ValidRoomCode(s string) bool {
	if len(s) != roomCodeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		found := false
		for j := 0; j < len(roomCodeChars); j++ {
			if s[i] == roomCodeChars[j] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
