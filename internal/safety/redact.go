package safety

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// credentialQueryParams lists URL query keys that are stripped by
// RedactURL before a URL is logged or echoed back into a prompt.
var credentialQueryParams = []string{"token", "key", "signature", "x-amz-signature", "sig", "auth"}

// RedactURL strips userinfo and known credential query parameters from a
// URL string, leaving the scheme/host/path intact for diagnostics. Returns
// the input unchanged if it does not parse as a URL.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	q := u.Query()
	changed := false
	for _, key := range credentialQueryParams {
		for k := range q {
			if strings.EqualFold(k, key) {
				q.Del(k)
				changed = true
			}
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

var jwtLike = regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)

// RedactSecrets scrubs bearer-token-shaped substrings out of free text
// before it is written to a log line.
func RedactSecrets(s string) string {
	return jwtLike.ReplaceAllString(s, "[redacted]")
}

// TruncateLabel shortens a button label to maxWidth display columns,
// appending an ellipsis when truncated. Uses display width rather than
// byte or rune count so CJK and emoji labels truncate correctly.
func TruncateLabel(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

// AbbreviateWallet shortens a chain address to "0xABCD…1234" form for
// display on delivery cards and settings menus.
func AbbreviateWallet(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

var fileURLLike = regexp.MustCompile(`https?://\S*/file/\S+|https?://\S+\.(jpg|jpeg|png|webp|mp4|gif|mov)(\?\S*)?`)

// RedactFileURL replaces platform file URLs in free text with a fixed
// placeholder (§4.4 step 2: prompts never echo a downloadable file URL
// back at the user).
func RedactFileURL(s string) string {
	return fileURLLike.ReplaceAllString(s, "(telegram file)")
}
