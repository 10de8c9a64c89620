package outreach

import "testing"

func TestReplySubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quick question", "Re: Quick question"},
		{"Re: Quick question", "Re: Quick question"},
		{"RE: re: Quick question", "Re: Quick question"},
		{"  Re:   Quick question  ", "Re: Quick question"},
		{"", "Re: "},
	}
	for _, tt := range tests {
		if got := ReplySubject(tt.in); got != tt.want {
			t.Errorf("ReplySubject(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinReferences(t *testing.T) {
	got := JoinReferences([]string{"<a@x>", "", "  ", "<b@x>", "<c@x>"})
	if got != "<a@x> <b@x> <c@x>" {
		t.Errorf("JoinReferences = %q", got)
	}
	if JoinReferences(nil) != "" {
		t.Error("nil input should give empty string")
	}
}
