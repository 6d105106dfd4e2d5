package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseID parses a positive numeric identifier from a path or query value.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NumberID parses a positive identifier sent either as a JSON number or a numeric string.
func NumberID(n json.Number) (int64, bool) {
	return ParseID(n.String())
}
