package command

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DeriveID computes the stable identifier for a command. The id is a function
// of the category, the executable and the working directory, so launching the
// same command from the same place always targets the same registry slot. The
// category is kept as a readable prefix to make ids recognizable in logs and
// event subjects.
func DeriveID(category, executable, workingDir string) string {
	prefix := sanitizeToken(category)
	if prefix == "" {
		prefix = "cmd"
	}
	sum := sha256.Sum256([]byte(category + "\x00" + executable + "\x00" + workingDir))
	return prefix + "-" + hex.EncodeToString(sum[:6])
}

// sanitizeToken rewrites a category label so it can be embedded in
// dot-separated event subjects. Subject tokens cannot contain dots,
// whitespace or wildcard characters.
func sanitizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
