// Package kdf acquires the password used to derive the kv store's
// symmetric key. Two methods are offered: an interactive
// no-echo TTY prompt, and a fixed placeholder for tests.
package kdf

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

// NoPasswordPlaceholder is the fixed password used by the --no-password
// test mode. A store opened with it can never be opened by Prompt and
// vice versa: the sentinel check in internal/kv.Store.Open rejects the
// mismatch the same way a genuinely wrong password would.
const NoPasswordPlaceholder = "party-no-password-insecure-placeholder"

// Method selects how the password is acquired at startup.
type Method int

const (
	Prompt Method = iota
	NoPassword
)

// Acquire returns the password for opening or creating the store.
// Prompt reads from the controlling TTY with echo disabled, confirming
// the entry when sentinelExists is false (first-ever open).
func Acquire(method Method, sentinelExists bool) (string, error) {
	switch method {
	case NoPassword:
		return NoPasswordPlaceholder, nil
	case Prompt:
		return promptPassword(sentinelExists)
	default:
		return "", fmt.Errorf("kdf: unknown password method %d", method)
	}
}

func promptPassword(sentinelExists bool) (string, error) {
	pass, err := readPassword("Password: ")
	if err != nil {
		return "", err
	}
	if sentinelExists {
		return pass, nil
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", fmt.Errorf("kdf: passwords did not match")
	}
	return pass, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("kdf: reading password: %w", err)
		}
		return string(b), nil
	}
	// not a TTY (e.g. piped input in a test harness): read a line instead.
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("kdf: reading password: %w", err)
	}
	return trimNewline(line), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
