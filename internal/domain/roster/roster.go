package roster

// UserID is the host system's internal user handle.
type UserID int64

// GroupID is the host system's internal group handle.
type GroupID int64

// KeyVariant names the CSV column used to resolve rows to users.
type KeyVariant string

const (
	KeyUsername KeyVariant = "username"
	KeyIDNumber KeyVariant = "idnumber"
)

// ColumnRole is the meaning assigned to one CSV column by validation.
type ColumnRole string

const (
	ColumnIdentityKey ColumnRole = "identitykey"
	ColumnGroup       ColumnRole = "group"
)

// ColumnMapping assigns a role to each CSV column, in header order.
type ColumnMapping []ColumnRole

// Entry aggregates every row of one resolved user.
type Entry struct {
	UserID UserID
	// Key is the original identity-key string, kept for diagnostics.
	Key    string
	Groups []string
}

// HasGroup reports whether name is among the user's requested groups.
func (e *Entry) HasGroup(name string) bool {
	for _, g := range e.Groups {
		if g == name {
			return true
		}
	}
	return false
}

func (e *Entry) addGroup(name string) {
	if name == "" {
		return
	}
	if !e.HasGroup(name) {
		e.Groups = append(e.Groups, name)
	}
}

// Roster maps resolved user ids to their aggregated entries.
type Roster map[UserID]*Entry

// Add upserts the entry for uid, appending group to its requested set.
// A blank group leaves the set unchanged; the entry itself is still kept
// so the user is enrolled and subject to auto-withdraw.
func (r Roster) Add(uid UserID, key, group string) {
	if entry, ok := r[uid]; ok {
		entry.addGroup(group)
		return
	}
	entry := &Entry{UserID: uid, Key: key}
	entry.addGroup(group)
	r[uid] = entry
}
