package roster_test

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"

	app "github.com/classops/enrolsync/internal/application/roster"
	domain "github.com/classops/enrolsync/internal/domain/roster"
)

type fakeDirectory struct {
	known map[string]domain.UserID
	err   error
}

func (f *fakeDirectory) ResolveIdentity(ctx context.Context, variant domain.KeyVariant, value string) (domain.UserID, error) {
	if f.err != nil {
		return 0, f.err
	}
	uid, ok := f.known[value]
	if !ok {
		return 0, domain.ErrUnknownIdentity
	}
	return uid, nil
}

func csvRows(t *testing.T, data string) *csv.Reader {
	t.Helper()
	return csv.NewReader(strings.NewReader(data))
}

func mustMapping(t *testing.T, header ...string) (domain.ColumnMapping, domain.KeyVariant) {
	t.Helper()
	mapping, variant, err := domain.ValidateColumns(header)
	if err != nil {
		t.Fatalf("validate header: %v", err)
	}
	return mapping, variant
}

func TestParseRosterAggregatesRowsPerUser(t *testing.T) {
	t.Parallel()

	mapping, variant := mustMapping(t, "idnumber", "group")
	dir := &fakeDirectory{known: map[string]domain.UserID{
		"5510500000": 1,
		"5510500001": 2,
	}}

	parsed, skipped, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "5510500000,5\n5510500001,5\n5510500001,6\n"), dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if skipped != 0 {
		t.Fatalf("expected 0 skipped rows, got %d", skipped)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if !parsed[1].HasGroup("5") || len(parsed[1].Groups) != 1 {
		t.Fatalf("unexpected groups for user 1: %v", parsed[1].Groups)
	}
	if !parsed[2].HasGroup("5") || !parsed[2].HasGroup("6") {
		t.Fatalf("unexpected groups for user 2: %v", parsed[2].Groups)
	}
	if parsed[2].Key != "5510500001" {
		t.Fatalf("unexpected key: %s", parsed[2].Key)
	}
}

func TestParseRosterRowOrderIrrelevant(t *testing.T) {
	t.Parallel()

	mapping, variant := mustMapping(t, "username", "group")
	dir := &fakeDirectory{known: map[string]domain.UserID{"alice": 1}}

	first, _, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "alice,a\nalice,b\n"), dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, _, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "alice,b\nalice,a\n"), dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(first[1].Groups) != len(second[1].Groups) {
		t.Fatalf("group sets differ: %v vs %v", first[1].Groups, second[1].Groups)
	}
	for _, name := range first[1].Groups {
		if !second[1].HasGroup(name) {
			t.Fatalf("group %s missing after permutation", name)
		}
	}
}

func TestParseRosterSkipsUnknownIdentities(t *testing.T) {
	t.Parallel()

	mapping, variant := mustMapping(t, "username", "group")
	dir := &fakeDirectory{known: map[string]domain.UserID{"alice": 1}}

	parsed, skipped, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "alice,a\nstranger,a\n"), dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", skipped)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(parsed))
	}
}

func TestParseRosterSkipsBlankRows(t *testing.T) {
	t.Parallel()

	mapping, variant := mustMapping(t, "username", "group")
	dir := &fakeDirectory{known: map[string]domain.UserID{"alice": 1}}

	parsed, skipped, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "alice,a\n,\n"), dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", skipped)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(parsed))
	}
}

func TestParseRosterEmptyRoster(t *testing.T) {
	t.Parallel()

	mapping, variant := mustMapping(t, "username", "group")
	dir := &fakeDirectory{known: map[string]domain.UserID{}}

	_, _, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "stranger,a\n"), dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
}

func TestParseRosterMalformedRowIsUnreadable(t *testing.T) {
	t.Parallel()

	mapping, variant := mustMapping(t, "username", "group")
	dir := &fakeDirectory{known: map[string]domain.UserID{"alice": 1}}

	// Unterminated quote in the second record.
	_, _, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "alice,a\n\"broken,b\n"), dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrInputUnreadable) {
		t.Fatalf("expected ErrInputUnreadable, got %v", err)
	}
}

func TestParseRosterDirectoryFailureIsFatal(t *testing.T) {
	t.Parallel()

	mapping, variant := mustMapping(t, "username", "group")
	dir := &fakeDirectory{err: fmt.Errorf("directory down")}

	_, _, err := app.ParseRoster(context.Background(), mapping, variant,
		csvRows(t, "alice,a\n"), dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrEmptyRoster) {
		t.Fatalf("expected systemic failure, got %v", err)
	}
}
