package nav

import (
	"strconv"
	"strings"

	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// AcceptsRune reports whether r may be typed into a cell of columnType.
// Number cells accept only digits, '.' and '-'.
func AcceptsRune(columnType string, r rune) bool {
	if columnType != types.ColumnNumber {
		return true
	}
	return (r >= '0' && r <= '9') || r == '.' || r == '-'
}

// FormatCommit returns the value stored when an edit of a columnType cell
// is committed. Valid numbers are given a decimal point ("5" becomes
// "5.0"); anything else is stored as typed.
func FormatCommit(columnType, value string) string {
	if columnType != types.ColumnNumber {
		return value
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return value
	}
	if strings.ContainsAny(v, ".eE") {
		return v
	}
	return v + ".0"
}
