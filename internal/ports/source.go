// Package ports declares the collaborator interfaces the sync engine depends
// on: the contact provider ("CP2") it reads from and the search index it
// writes to. Both are specified only at their interface — schema,
// query/storage internals, and the wire protocol to the real provider are
// out of scope for this repository.
package ports

import (
	"context"

	"github.com/cpindexer/cpindexer/internal/model"
)

// Column name constants for ContactSource.QueryContacts rows, per spec §6.
const (
	ColID                  = "_id"
	ColContactID           = "contact_id"
	ColMimeType            = "mime_type"
	ColLookupKey           = "lookup_key"
	ColPhotoThumbnailURI   = "photo_thumbnail_uri"
	ColDisplayNamePrimary  = "display_name_primary"
	ColPhoneticName        = "phonetic_name"
	ColRawContactID        = "raw_contact_id"
	ColNameRawContactID    = "name_raw_contact_id"
	ColStarred             = "starred"
	ColIsPrimary           = "is_primary"
	ColIsSuperPrimary      = "is_super_primary"
	ColAddress             = "address"
	ColType                = "type"
	ColLabel               = "label"
	ColRelationName        = "name"
	ColOrgTitle            = "title"
	ColOrgDepartment       = "department"
	ColOrgCompany          = "company"
	ColNickname            = "name" // nickname rows reuse the "name" column
	ColNote                = "note"
	ColGivenName           = "given_name"
	ColMiddleName          = "middle_name"
	ColFamilyName          = "family_name"
)

// Canonical mime-type tags dispatched by the row decoder (C2). This is the
// fixed set of 8 handlers the spec allows; there is no plugin system for
// additional mime types (spec Non-goal).
const (
	MimeEmail          = "vnd.android.cursor.item/email_v2"
	MimePhone          = "vnd.android.cursor.item/phone_v2"
	MimePostal         = "vnd.android.cursor.item/postal-address_v2"
	MimeNickname       = "vnd.android.cursor.item/nickname"
	MimeStructuredName = "vnd.android.cursor.item/name"
	MimeOrganization   = "vnd.android.cursor.item/organization"
	MimeRelation       = "vnd.android.cursor.item/relation"
	MimeNote           = "vnd.android.cursor.item/note"
)

// Row is one row of a ContactSource cursor: a mime-type tag plus a bag of
// named column values. Values are read via the typed accessors, which
// return the zero value when the column is absent or NULL — mirroring a
// forgiving cursor read rather than a strict schema.
type Row map[string]any

// Str returns the column as a string, or "" if absent/NULL/non-string.
func (r Row) Str(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Int64 returns the column as an int64, or 0 if absent/NULL/non-numeric.
func (r Row) Int64(col string) int64 {
	v, ok := r[col]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// Bool returns the column as a bool. Non-zero integers and literal bools are
// both accepted since the underlying cursor may represent booleans as 0/1.
func (r Row) Bool(col string) bool {
	v, ok := r[col]
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	default:
		return r.Int64(col) != 0
	}
}

// Cursor iterates rows sorted by (contact_id ASC, is_super_primary DESC,
// is_primary DESC, raw_contact_id ASC), per spec §4.2. Rows for a given
// contact_id are therefore contiguous, with "primary" rows first. The
// decoder closes the cursor on every exit path.
type Cursor interface {
	// Next advances to the next row, returning false at end-of-cursor or on
	// error (check Err after Next returns false).
	Next(ctx context.Context) bool
	// Row returns the current row. Valid only after Next returns true.
	Row() Row
	// Err returns the first error encountered during iteration, if any.
	Err() error
	// Close releases the cursor's resources. Safe to call multiple times.
	Close() error
}

// IDTimestamp is the result of an *_since query: the ids touched plus the
// maximum timestamp observed across those ids (or the input timestamp
// unchanged if no rows matched).
type IDTimestamp struct {
	IDs       []string
	MaxTSMs   int64
}

// ContactSource is CP2, the external contact provider. It is specified only
// at this interface; schema, storage, and wire format are out of scope.
type ContactSource interface {
	// UpdatedIDsSince returns ids updated since tsMs and the max timestamp
	// observed. On failure it returns an empty id list and tsMs unchanged.
	UpdatedIDsSince(ctx context.Context, tsMs int64) (IDTimestamp, error)

	// DeletedIDsSince returns ids deleted since tsMs and the max timestamp
	// observed. On failure it returns an empty id list and tsMs unchanged.
	DeletedIDsSince(ctx context.Context, tsMs int64) (IDTimestamp, error)

	// QueryContacts opens a cursor over the given ids, sorted per the
	// canonical order above, with exactly the requested columns (plus
	// mime_type on every row). A nil cursor (with nil error) signals a
	// non-fatal failure to open — the caller must treat this the same as
	// spec's ContactSource.query_contacts returning null.
	QueryContacts(ctx context.Context, ids []string, columns map[string]struct{}) (Cursor, error)

	// SubscribeChanges registers a callback invoked on any contact change.
	// It returns an unsubscribe function.
	SubscribeChanges(onChange func()) (unsubscribe func())

	// SyncInProgress reports whether CP2 is mid an ambient long-running
	// sync, used to defer delta runs per spec §4.5.
	SyncInProgress(ctx context.Context) bool
}

// ContactStore is the search index. It is specified only at this interface;
// schema registration, query, and storage engine internals are out of scope
// (spec Non-goal: no index storage implementation).
type ContactStore interface {
	// RegisterSchema registers (or, if force, re-registers) the index
	// schema for Person documents.
	RegisterSchema(ctx context.Context, force bool) error

	// Upsert writes records with all-or-none semantics: any partial
	// failure fails the whole batch.
	Upsert(ctx context.Context, people []model.Person) error

	// DeleteByID removes records by id with all-or-none semantics.
	DeleteByID(ctx context.Context, ids []string) error

	// ListAllIDs returns every id currently stored in the engine's
	// namespace.
	ListAllIDs(ctx context.Context) ([]string, error)
}
