package passphrase

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("GAINJAR_TEST_PASS", "correct horse")
	src := NewSource("GAINJAR_TEST_PASS", "key")
	src.prompt = func(io.Writer, string) ([]byte, error) {
		t.Fatalf("prompt should not run when the env var is set")
		return nil, nil
	}
	got, err := src.Get()
	if err != nil || got != "correct horse" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
}

func TestSourceRejectsBlankEnvironment(t *testing.T) {
	t.Setenv("GAINJAR_TEST_PASS", "   ")
	if _, err := NewSource("GAINJAR_TEST_PASS", "key").Get(); err == nil {
		t.Fatalf("expected error for blank passphrase")
	}
}

func TestSourcePromptsOnceAndCaches(t *testing.T) {
	calls := 0
	src := NewSource("", "key")
	src.out = io.Discard
	src.prompt = func(_ io.Writer, message string) ([]byte, error) {
		calls++
		if !strings.Contains(message, "key passphrase") {
			t.Fatalf("unexpected prompt %q", message)
		}
		return []byte("s3cret"), nil
	}
	for i := 0; i < 2; i++ {
		got, err := src.Get()
		if err != nil || got != "s3cret" {
			t.Fatalf("Get() = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("prompted %d times", calls)
	}
}

func TestSourceWithoutTerminal(t *testing.T) {
	src := NewSource("GAINJAR_UNSET_PASS_VAR", "key")
	src.prompt = nil
	_, err := src.Get()
	if err == nil || !strings.Contains(err.Error(), "GAINJAR_UNSET_PASS_VAR") {
		t.Fatalf("expected env hint, got %v", err)
	}

	src = NewSource("", "key")
	src.prompt = func(io.Writer, string) ([]byte, error) { return nil, errors.New("tty closed") }
	if _, err := src.Get(); err == nil {
		t.Fatalf("expected prompt error")
	}
}
