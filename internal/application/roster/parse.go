package roster

import (
	"context"
	"errors"
	"fmt"
	"io"

	domain "github.com/classops/enrolsync/internal/domain/roster"
)

// RowReader yields one data row per call, fields aligned to the header.
// encoding/csv.Reader satisfies it.
type RowReader interface {
	Read() ([]string, error)
}

// ParseRoster streams data rows, resolves each identity key through the
// directory and aggregates rows into one entry per resolved user. Rows
// whose key matches no known user are skipped, as are blank rows; the
// number of skipped rows is returned alongside the roster. An exhausted
// input that produced no entries is reported as ErrEmptyRoster.
func ParseRoster(ctx context.Context, mapping domain.ColumnMapping, variant domain.KeyVariant, rows RowReader, dir domain.Directory) (domain.Roster, int64, error) {
	result := domain.Roster{}
	var skipped int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		row, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("%w: %v", domain.ErrInputUnreadable, err)
		}

		key, group, ok := splitRow(mapping, row)
		if !ok {
			skipped++
			continue
		}

		uid, err := dir.ResolveIdentity(ctx, variant, key)
		if errors.Is(err, domain.ErrUnknownIdentity) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("resolve identity %q: %w", key, err)
		}

		result.Add(uid, key, group)
	}

	if len(result) == 0 {
		return nil, skipped, domain.ErrEmptyRoster
	}

	return result, skipped, nil
}

// splitRow extracts the identity-key and group fields per the mapping.
// Blank rows and rows with an empty identity key are rejected.
func splitRow(mapping domain.ColumnMapping, row []string) (string, string, bool) {
	var key, group string
	for i, role := range mapping {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		if role == domain.ColumnGroup {
			group = value
		} else {
			key = value
		}
	}
	return key, group, key != ""
}
