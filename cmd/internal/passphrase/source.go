package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source lazily resolves a keystore passphrase from an environment variable or
// by prompting the operator. The value is cached after the first successful
// retrieval so repeated calls reuse the same secret.
type Source struct {
	envVar string
	label  string

	// prompt reads a secret from the terminal; nil when stdin is not a TTY.
	prompt func(io.Writer, string) ([]byte, error)
	out    io.Writer

	once  sync.Once
	value string
	err   error
}

// NewSource constructs a passphrase source that checks envVar before
// interactively prompting on the terminal. label names the secret in prompts
// and errors, e.g. "key".
func NewSource(envVar, label string) *Source {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "keystore"
	}
	s := &Source{envVar: strings.TrimSpace(envVar), label: label, out: os.Stderr}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		s.prompt = readTerminal
	}
	return s
}

func readTerminal(w io.Writer, message string) ([]byte, error) {
	fmt.Fprint(w, message)
	defer fmt.Fprintln(w)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// Get returns the cached passphrase or resolves it if this is the first call.
// When the environment variable is set the exact value is used. Whitespace-only
// passphrases are rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		if s.envVar != "" {
			if value, ok := os.LookupEnv(s.envVar); ok {
				if strings.TrimSpace(value) == "" {
					s.err = fmt.Errorf("%s is set but empty", s.envVar)
					return
				}
				s.value = value
				return
			}
		}

		if s.prompt == nil {
			if s.envVar != "" {
				s.err = fmt.Errorf("%s passphrase required; set %s or run interactively", s.label, s.envVar)
			} else {
				s.err = fmt.Errorf("%s passphrase required and no terminal available", s.label)
			}
			return
		}

		raw, err := s.prompt(s.out, fmt.Sprintf("Enter %s passphrase: ", s.label))
		if err != nil {
			s.err = fmt.Errorf("failed to read passphrase: %w", err)
			return
		}

		passphrase := string(raw)
		if strings.TrimSpace(passphrase) == "" {
			s.err = errors.New(s.label + " passphrase cannot be empty")
			return
		}

		s.value = passphrase
	})

	return s.value, s.err
}
