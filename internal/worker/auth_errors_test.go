package worker

import "testing"

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{"unauthorized", "401 Unauthorized", true},
		{"invalid grant", "oauth2: \"invalid_grant\" token expired or revoked", true},
		{"revoked token", "Token has been revoked by the user", true},
		{"refresh token", "failed to obtain refresh token", true},
		{"authentication", "SMTP authentication failed", true},
		{"insufficient permissions", "insufficient permissions for scope", true},
		{"case insensitive", "AUTHENTICATION required", true},

		{"empty", "", false},
		{"timeout", "connection timed out after 30s", false},
		{"mailbox full", "452 4.2.2 mailbox full", false},
		{"author is not auth", "message rejected: author flagged by filter", false},
		{"authority is not auth", "certificate authority unknown", false},
		{"unauthorizedish substring", "preauthorization hold failed", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.msg); got != tt.want {
				t.Errorf("IsAuthError(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}
