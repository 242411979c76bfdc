package domain

import (
	"strings"
	"unicode/utf8"
)

// MaxDisplayNameLength bounds participant names, counted in runes.
const MaxDisplayNameLength = 20

// RoomCodeLength is the fixed size of server assigned room codes.
const RoomCodeLength = 6

// NormalizeRoomCode trims and uppercases a user supplied room code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateRoomCode checks an already normalized code.
func ValidateRoomCode(code string) error {
	if len(code) != RoomCodeLength {
		return ErrRoomCodeInvalid
	}
	for _, r := range code {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return ErrRoomCodeInvalid
		}
	}
	return nil
}

// CleanDisplayName trims a name and enforces the length limit.
func CleanDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrDisplayNameRequired
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", ErrDisplayNameTooLong
	}
	return name, nil
}
