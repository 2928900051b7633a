package auth

import (
	"testing"
	"time"
)

func TestStateManager_IssueAndVerify(t *testing.T) {
	manager := NewStateManager("secret", time.Minute)
	state, err := manager.Issue("user-1", "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := manager.Verify(state)
	if err != nil {
		t.Fatalf("verify state: %v", err)
	}
	if claims.Subject != "user-1" || claims.Platform != "x" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := manager.Verify(state + "tampered"); err == nil {
		t.Fatalf("expected verify error for tampered state")
	}
}

func TestStateManager_Expiry(t *testing.T) {
	manager := NewStateManager("secret", time.Nanosecond)
	state, err := manager.Issue("user-1", "linkedin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := manager.Verify(state); err == nil {
		t.Fatalf("expected verify error for expired state")
	}
}

func TestStateManager_EmptySecret(t *testing.T) {
	manager := NewStateManager("", time.Minute)
	if _, err := manager.Issue("user", "x"); err == nil {
		t.Fatalf("expected error when secret is empty")
	}
}
