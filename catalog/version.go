package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	versionTokenPattern = regexp.MustCompile(`^"(\d+)"$`)
	idPattern           = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// ParseVersionToken parses a version token of the form "<digits>", quotes
// included. It reports false for any other shape.
func ParseVersionToken(token string) (int64, bool) {
	m := versionTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// VersionToken formats a version as a token accepted by ParseVersionToken,
// suitable for ETag and If-Match headers.
func VersionToken(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

// ValidID reports whether id is a well-formed store key (24 hex characters).
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// canonicalID returns a well-formed id in the lowercase form identifiers are
// stored in.
func canonicalID(id string) (string, bool) {
	if !ValidID(id) {
		return "", false
	}
	return strings.ToLower(id), true
}
