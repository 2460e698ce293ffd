package domain

import "strings"

// InstituteCode is the normalized (trimmed, upper-case) institute code used
// as the directory key and for single-occupancy checks.
type InstituteCode string

// NormalizeInstituteCode returns the canonical form of a raw institute code.
func NormalizeInstituteCode(raw string) InstituteCode {
	return InstituteCode(strings.ToUpper(strings.TrimSpace(raw)))
}

func (c InstituteCode) String() string { return string(c) }

func (c InstituteCode) IsEmpty() bool { return c == "" }
