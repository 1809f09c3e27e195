package search

import (
	"strings"

	"github.com/vigna-ne/ne/pkg/status"
)

// Substitute is a parsed "/pattern/replacement/flags" command.
type Substitute struct {
	Pattern     string
	Replacement string
	Global      bool
	IgnoreCase  bool
}

// ParseSubstitute parses a sed-style substitute command using the first
// character of cmd as the field delimiter, grounded on the parse loop in
// find-manager's ParseSubstituteCommand.
func ParseSubstitute(cmd string) (Substitute, status.Status) {
	if len(cmd) < 2 {
		return Substitute{}, status.SYNTAX_ERROR
	}
	delim := cmd[0]
	fields := splitUnescaped(cmd[1:], delim)
	if len(fields) < 2 {
		return Substitute{}, status.SYNTAX_ERROR
	}
	sub := Substitute{Pattern: fields[0], Replacement: fields[1]}
	if len(fields) >= 3 {
		for _, f := range fields[2] {
			switch f {
			case 'g':
				sub.Global = true
			case 'i':
				sub.IgnoreCase = true
			default:
				return Substitute{}, status.SYNTAX_ERROR
			}
		}
	}
	if sub.Pattern == "" {
		return Substitute{}, status.NO_SEARCH_STRING
	}
	return sub, status.OK
}

func splitUnescaped(s string, delim byte) []string {
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == delim {
			cur.WriteByte(delim)
			i++
			continue
		}
		if s[i] == delim {
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(s[i])
	}
	fields = append(fields, cur.String())
	return fields
}
