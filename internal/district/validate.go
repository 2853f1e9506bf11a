package district

import "strings"

// normalizeZip trims surrounding whitespace and accepts only exactly five
// ASCII digits. No repair of malformed input: letters, overlong strings and
// injection-looking payloads are rejected here, before any tier is consulted.
func normalizeZip(zip string) (string, bool) {
	z := strings.TrimSpace(zip)
	if len(z) != 5 {
		return "", false
	}
	for i := 0; i < 5; i++ {
		if z[i] < '0' || z[i] > '9' {
			return "", false
		}
	}
	return z, true
}

// ValidZip reports whether the input would be accepted by Resolve.
// Callers needing to distinguish "malformed" from "well-formed but unknown"
// use this as the pre-check.
func ValidZip(zip string) bool {
	_, ok := normalizeZip(zip)
	return ok
}
