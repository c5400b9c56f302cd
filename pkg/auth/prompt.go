package auth

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// PromptPassphrase reads a passphrase from the terminal without
// echoing it. Fails when stdin is not a terminal so scripted runs get
// a clear error instead of hanging on a hidden read.
func PromptPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("cannot prompt for passphrase: stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}

	if len(raw) == 0 {
		return "", errors.New("empty passphrase")
	}
	return string(raw), nil
}
