package proximity

import "strings"

const tokenLen = 16

// EncodePayload wraps an ephemeral token in the service's advertisement
// framing.
func EncodePayload(token string) string {
	return PayloadPrefix + token
}

// ExtractToken returns the token carried by an advertisement payload, or
// ok=false when the payload is not ours. The body must be exactly 16
// lowercase hex characters; anything else (foreign framing, truncated or
// uppercase bodies, trailing garbage) is rejected so junk never enters
// the peer table.
func ExtractToken(payload string) (token string, ok bool) {
	if !strings.HasPrefix(payload, PayloadPrefix) {
		return "", false
	}
	token = payload[len(PayloadPrefix):]
	if len(token) != tokenLen {
		return "", false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return token, true
}
