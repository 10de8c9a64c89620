package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jo.doe@example.com", "jo***@example.com"},
		{"sarah@acme.io", "sa***@acme.io"},
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"not-an-address", "***@***"},
		{"two@at@signs", "***@***"},
		{"", "***@***"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactEmail(tt.in), "RedactEmail(%q)", tt.in)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARN"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel("info"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestRedactValueByKey(t *testing.T) {
	// Keys that carry addresses are masked wholesale; other values only
	// have embedded addresses rewritten.
	assert.Equal(t, "jo***@example.com", redactValue("toEmail", "jo.doe@example.com"))
	assert.Equal(t, "jo***@example.com", redactValue("lead", "jo.doe@example.com"))
	assert.Equal(t, "bounce from jo***@example.com rejected",
		redactValue("reason", "bounce from jo.doe@example.com rejected"))
	assert.Equal(t, "plain message", redactValue("reason", "plain message"))
}
