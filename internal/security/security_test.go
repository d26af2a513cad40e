package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "password123" {
		t.Fatal("Hash must not equal the plaintext")
	}

	if !CheckPassword("password123", hash) {
		t.Error("Expected correct password to verify")
	}
	if CheckPassword("wrong-password", hash) {
		t.Error("Expected wrong password to fail")
	}
	if CheckPassword("password123", "not-a-hash") {
		t.Error("Expected garbage hash to fail")
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("Expected the fourth request to be rejected")
	}

	// Another IP has its own bucket
	if !rl.Allow("5.6.7.8") {
		t.Error("Expected a fresh IP to be allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if ip := GetClientIP(req); ip != "10.0.0.1:1234" {
		t.Errorf("Expected remote addr, got %s", ip)
	}

	req.Header.Set("X-Real-IP", "9.9.9.9")
	if ip := GetClientIP(req); ip != "9.9.9.9" {
		t.Errorf("Expected X-Real-IP, got %s", ip)
	}

	req.Header.Set("X-Forwarded-For", "8.8.8.8")
	if ip := GetClientIP(req); ip != "8.8.8.8" {
		t.Errorf("Expected X-Forwarded-For to win, got %s", ip)
	}

	// A proxy chain reports the client first
	req.Header.Set("X-Forwarded-For", "8.8.8.8, 10.0.0.2, 10.0.0.3")
	if ip := GetClientIP(req); ip != "8.8.8.8" {
		t.Errorf("Expected the first hop of the chain, got %s", ip)
	}
}

func TestSessionCookieFlags(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/", nil)

	cookie := NewSessionCookie(req, "abc", time.Now().Add(time.Hour))
	if cookie.Name != SessionCookieName {
		t.Errorf("Expected cookie %s, got %s", SessionCookieName, cookie.Name)
	}
	if !cookie.HttpOnly {
		t.Error("Expected HttpOnly")
	}
	if cookie.Secure {
		t.Error("Expected Secure off for plain HTTP")
	}

	req.Header.Set("X-Forwarded-Proto", "https")
	cookie = NewSessionCookie(req, "abc", time.Now().Add(time.Hour))
	if !cookie.Secure {
		t.Error("Expected Secure on behind an HTTPS proxy")
	}

	deleted := NewSessionDeleteCookie(req)
	if deleted.Name != SessionCookieName || deleted.MaxAge != -1 || deleted.Value != "" {
		t.Errorf("Expected an expiring empty session cookie, got %+v", deleted)
	}
}
