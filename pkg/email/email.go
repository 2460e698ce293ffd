package email

import (
	"net/mail"
	"strings"
	"unicode"
)

// Valid reports whether addr is a bare RFC 5322 address (no display name).
func Valid(addr string) bool {
	if addr == "" || strings.TrimSpace(addr) != addr {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return false
	}
	return parsed.Address == addr
}

// Greeting returns name when present, otherwise a name derived from the
// local part of the address ("priya.sharma@x.io" -> "Priya Sharma").
func Greeting(name, addr string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	first, last := DeriveNameFromEmail(addr)
	if last == "" {
		return first
	}
	return first + " " + last
}

// DeriveNameFromEmail splits the local part on . _ - + and capitalizes the
// first and last fragments. last is empty when there is only one fragment.
func DeriveNameFromEmail(addr string) (string, string) {
	localPart := addr
	if at := strings.IndexByte(addr, '@'); at > 0 {
		localPart = addr[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "Participant", ""
	}

	first := capitalize(parts[0])
	last := ""
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
