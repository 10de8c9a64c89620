package outreach

import "strings"

// ReplySubject derives the follow-up subject from the thread's base subject,
// collapsing any existing "Re:" prefixes so we never emit "Re: Re: ...".
func ReplySubject(baseSubject string) string {
	s := strings.TrimSpace(baseSubject)
	for {
		lower := strings.ToLower(s)
		if !strings.HasPrefix(lower, "re:") {
			break
		}
		s = strings.TrimSpace(s[3:])
	}
	return "Re: " + s
}

// JoinReferences builds the References header value from the ordered list of
// prior message IDs, skipping empties.
func JoinReferences(messageIDs []string) string {
	var kept []string
	for _, id := range messageIDs {
		if id = strings.TrimSpace(id); id != "" {
			kept = append(kept, id)
		}
	}
	return strings.Join(kept, " ")
}
