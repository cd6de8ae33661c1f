package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds a single line of user input, in bytes.
const DefaultMaxInputSize = 4096

// EnvMaxInputSize overrides DefaultMaxInputSize for SanitizeInput.
const EnvMaxInputSize = "PARLEY_INPUT_MAX_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput applies SanitizeInputLimit with the limit from EnvMaxInputSize,
// or DefaultMaxInputSize when unset or invalid.
func SanitizeInput(input string) (string, error) {
	return SanitizeInputLimit(input, limitFromEnv())
}

// SanitizeInputLimit rejects input over limit bytes or with invalid UTF-8, and
// drops control characters (C0, DEL, C1) other than \n, \t and \r.
// A limit <= 0 means DefaultMaxInputSize.
func SanitizeInputLimit(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	// strings.Map returns input itself when nothing is dropped
	return strings.Map(keepRune, input), nil
}

func keepRune(r rune) rune {
	switch r {
	case '\n', '\t', '\r':
		return r
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}

func limitFromEnv() int {
	size, err := strconv.Atoi(os.Getenv(EnvMaxInputSize))
	if err != nil || size <= 0 {
		return DefaultMaxInputSize
	}
	return size
}
