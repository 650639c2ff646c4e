package email

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewSMTPSender_Validation(t *testing.T) {
	if _, err := NewSMTPSender("", 0, "", "", "noreply@lume.app", "Lume", false); err == nil {
		t.Fatalf("expected error without host")
	}
	if _, err := NewSMTPSender("smtp.example.com", 0, "", "", "", "Lume", false); err == nil {
		t.Fatalf("expected error without from")
	}
	s, err := NewSMTPSender("smtp.example.com", 0, "", "", "noreply@lume.app", "Lume", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.port != 587 {
		t.Fatalf("expected default port 587, got %d", s.port)
	}
}

func TestBuildMessage_Headers(t *testing.T) {
	msg := buildMessage("noreply@lume.app", "Lume", "ana@example.com", "Welcome to Lume", "hola")
	if !strings.Contains(msg, "From: \"Lume\" <noreply@lume.app>\r\n") {
		t.Fatalf("missing from header: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\n\r\nhola") {
		t.Fatalf("body not separated from headers: %q", msg)
	}
}

func TestBuildMessage_CRLFBody(t *testing.T) {
	msg := buildMessage("noreply@lume.app", "", "ana@example.com", "Hola", "linea 1\nlinea 2")
	if !strings.HasPrefix(msg, "From: noreply@lume.app\r\n") {
		t.Fatalf("expected bare from address: %q", msg)
	}
	if !strings.HasSuffix(msg, "linea 1\r\nlinea 2") {
		t.Fatalf("expected CRLF line endings in body: %q", msg)
	}
}

func TestSMTPSender_RejectsEmptyRecipient(t *testing.T) {
	s, _ := NewSMTPSender("smtp.example.com", 25, "", "", "noreply@lume.app", "", false)
	if err := s.SendWelcome(context.Background(), " ", "ana"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendWelcome(context.Background(), "ana@example.com", "ana")
	if !errors.Is(err, ErrSenderDisabled) {
		t.Fatalf("expected ErrSenderDisabled, got %v", err)
	}
}
