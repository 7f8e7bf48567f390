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

// ErrMismatch is returned when a confirmed prompt receives two different
// entries.
var ErrMismatch = errors.New("passphrases do not match")

// Source resolves a keystore passphrase once, from an environment variable or
// an interactive prompt, and caches the result.
type Source struct {
	envVar  string
	label   string
	confirm bool
	minLen  int

	prompt func(label string) (string, error)
	out    io.Writer

	once  sync.Once
	value string
	err   error
}

// Option customises a Source.
type Option func(*Source)

// WithConfirm asks for the passphrase twice when prompting. Used when a new
// keystore is being created.
func WithConfirm() Option {
	return func(s *Source) { s.confirm = true }
}

// WithMinLength rejects passphrases shorter than n characters.
func WithMinLength(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.minLen = n
		}
	}
}

// WithPrompt replaces the terminal prompt.
func WithPrompt(fn func(label string) (string, error)) Option {
	return func(s *Source) {
		if fn != nil {
			s.prompt = fn
		}
	}
}

// NewSource checks envVar before prompting. label names the keystore in
// prompts and errors, for example "owner keystore".
func NewSource(envVar, label string, opts ...Option) *Source {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "keystore"
	}
	s := &Source{envVar: strings.TrimSpace(envVar), label: label, out: os.Stderr}
	s.prompt = s.terminalPrompt
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the passphrase, resolving it on the first call.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		s.value, s.err = s.resolve()
	})
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, s.checkLength(value)
		}
	}

	first, err := s.prompt("Enter " + s.label + " passphrase: ")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(first) == "" {
		return "", fmt.Errorf("%s passphrase cannot be empty", s.label)
	}
	if err := s.checkLength(first); err != nil {
		return "", err
	}
	if s.confirm {
		second, err := s.prompt("Repeat " + s.label + " passphrase: ")
		if err != nil {
			return "", err
		}
		if second != first {
			return "", ErrMismatch
		}
	}
	return first, nil
}

func (s *Source) checkLength(value string) error {
	if s.minLen > 0 && len(value) < s.minLen {
		return fmt.Errorf("%s passphrase must be at least %d characters", s.label, s.minLen)
	}
	return nil
}

func (s *Source) terminalPrompt(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if s.envVar != "" {
			return "", fmt.Errorf("%s passphrase required; set %s or run interactively", s.label, s.envVar)
		}
		return "", fmt.Errorf("%s passphrase required and no terminal available", s.label)
	}
	fmt.Fprint(s.out, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(s.out)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(raw), nil
}
