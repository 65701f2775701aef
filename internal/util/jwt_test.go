package util

import (
	"net/http"
	"testing"
)

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := GenerateJWT(42, "test-secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	userID, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != 42 {
		t.Errorf("user_id = %d, want 42", userID)
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(42, "test-secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic abc123", ""},
		{"abc123", ""},
		{"", ""},
	}
	for _, tc := range cases {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		if got := ExtractToken(r); got != tc.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
