package auth

import "testing"

func TestMessageForDistinctMessages(t *testing.T) {
	codes := []string{
		CodeInvalidEmail, CodeWeakPassword, CodeEmailInUse, CodeUserNotFound,
		CodeWrongPassword, CodeInvalidCredential, CodeTooManyRequests,
	}

	seen := make(map[string]string)
	for _, code := range codes {
		msg := MessageFor(code)
		if msg == "" || msg == "Authentication failed" {
			t.Errorf("MessageFor(%s) returned the fallback message", code)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("codes %s and %s share the message %q", prev, code, msg)
		}
		seen[msg] = code
	}
}

func TestMessageForUnknownCode(t *testing.T) {
	if got := MessageFor("no-such-code"); got != "Authentication failed" {
		t.Errorf("MessageFor(unknown) = %q, want fallback", got)
	}
}
