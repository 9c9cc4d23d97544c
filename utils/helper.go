package utils

import "strings"

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// TrimmedLen counts the characters of s after trimming surrounding whitespace.
func TrimmedLen(s string) int {
	return len([]rune(strings.TrimSpace(s)))
}
