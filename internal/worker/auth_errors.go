package worker

import "strings"

// Provider auth failures (expired/revoked tokens, 401/403) must move the
// inbox to status=error and disable warmup. Detection is a conservative
// keyword match; each keyword is matched as a whole token sequence so
// substrings like "author" or "authority" never trigger it.
var authErrorKeywords = []string{
	"unauthorized",
	"invalid_grant",
	"invalid_client",
	"token expired",
	"token has been revoked",
	"refresh token",
	"authentication",
	"auth_error",
	"insufficient permissions",
}

// IsAuthError reports whether an error message indicates a disconnected or
// revoked provider credential.
func IsAuthError(errMsg string) bool {
	lower := strings.ToLower(errMsg)
	for _, kw := range authErrorKeywords {
		idx := 0
		for {
			i := strings.Index(lower[idx:], kw)
			if i < 0 {
				break
			}
			start := idx + i
			end := start + len(kw)
			if boundaryBefore(lower, start) && boundaryAfter(lower, end) {
				return true
			}
			idx = start + 1
		}
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	return i == 0 || !isWordChar(s[i-1])
}

func boundaryAfter(s string, i int) bool {
	return i >= len(s) || !isWordChar(s[i])
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
