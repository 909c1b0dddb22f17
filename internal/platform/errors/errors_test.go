package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeFeedRead, "read feed", stderrors.New("connection reset"))
	if got, want := err.Error(), "read feed: connection reset"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if got, want := New(CodeFeedRead, "read feed").Error(), "read feed"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	cause := stderrors.New("boom")
	err := fmt.Errorf("handler: %w", Wrap(CodeGenerate, "generate reply", cause))

	if !stderrors.Is(err, New(CodeGenerate, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeFeedPublish, "")) {
		t.Fatal("unexpected match for different code")
	}
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to stay reachable")
	}
}

func TestHasCodeFollowsWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{name: "nil", err: nil, code: CodeChannelNotFound, want: false},
		{name: "plain", err: stderrors.New("x"), code: CodeChannelNotFound, want: false},
		{name: "domain", err: New(CodeChannelNotFound, "missing"), code: CodeChannelNotFound, want: true},
		{name: "other code", err: New(CodeChannelNotFound, "missing"), code: CodeEntryInvalid, want: false},
		{name: "wrapped", err: fmt.Errorf("outer: %w", New(CodeEntryInvalid, "bad")), code: CodeEntryInvalid, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Fatalf("HasCode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasCodeInsideJoin(t *testing.T) {
	err := stderrors.Join(New(CodeFeedPublish, "a"), stderrors.New("b"))
	if !HasCode(err, CodeFeedPublish) {
		t.Fatal("expected joined error to carry publish code")
	}
	if HasCode(err, CodeGenerate) {
		t.Fatal("unexpected generate code")
	}
}

func TestRetryable(t *testing.T) {
	if !CodeFeedRead.Retryable() {
		t.Fatal("feed read should be retryable")
	}
	if CodeEntryInvalid.Retryable() {
		t.Fatal("entry validation should not be retryable")
	}
}

func TestLocalize(t *testing.T) {
	err := WithMetadata(CodeRoomRefUnresolved, "unknown room", map[string]string{"room_ref": "r-9"})

	if got := Localize(err, "pt-BR").Error(); got != "roomRef desconhecido r-9" {
		t.Fatalf("pt-BR = %q", got)
	}
	english := Localize(fmt.Errorf("send: %w", err), "")
	if got := english.Error(); got != "unknown roomRef r-9" {
		t.Fatalf("en-US = %q", got)
	}
	if !HasCode(english, CodeRoomRefUnresolved) {
		t.Fatal("localized error lost its code")
	}

	plain := stderrors.New("plain")
	if Localize(plain, "pt-BR") != plain {
		t.Fatal("uncoded errors must pass through")
	}
	feedErr := New(CodeFeedRead, "read feed")
	if Localize(feedErr, "pt-BR") != feedErr {
		t.Fatal("codes without messages must pass through")
	}
	if Localize(nil, "pt-BR") != nil {
		t.Fatal("nil must stay nil")
	}
}
