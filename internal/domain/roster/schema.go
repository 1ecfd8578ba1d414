package roster

import (
	"fmt"
	"strings"
)

// ValidateColumns inspects a CSV header line. Column names are matched
// case-insensitively against idnumber, username and group; exactly two
// columns are accepted, one of which must be group. On success it returns
// the positional mapping and the identity-key variant in use.
func ValidateColumns(columns []string) (ColumnMapping, KeyVariant, error) {
	if len(columns) == 0 {
		return nil, "", ErrEmptyFile
	}
	if len(columns) != 2 {
		return nil, "", fmt.Errorf("%w: got %d", ErrWrongColumnCount, len(columns))
	}

	mapping := make(ColumnMapping, 0, len(columns))
	variant := KeyVariant("")
	seen := make(map[string]bool, len(columns))
	groupSeen := false

	for _, column := range columns {
		name := strings.ToLower(strings.TrimSpace(column))
		switch name {
		case "group":
			mapping = append(mapping, ColumnGroup)
			groupSeen = true
		case string(KeyUsername), string(KeyIDNumber):
			mapping = append(mapping, ColumnIdentityKey)
			variant = KeyVariant(name)
		default:
			return nil, "", fmt.Errorf("%w: %q", ErrUnrecognizedColumn, column)
		}

		if seen[name] {
			return nil, "", fmt.Errorf("%w: %q", ErrDuplicateColumn, column)
		}
		seen[name] = true
	}

	if !groupSeen {
		return nil, "", ErrMissingGroupColumn
	}

	return mapping, variant, nil
}
