// Package decode implements the pure transformation (C2) from a CP2 cursor —
// many typed rows per contact — into canonical model.Person records.
package decode

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cpindexer/cpindexer/internal/decode/label"
	"github.com/cpindexer/cpindexer/internal/model"
	"github.com/cpindexer/cpindexer/internal/ports"
)

// Decoder turns a ports.Cursor into a sequence of Person records. It holds no
// state between Decode calls; the in-progress accumulator lives on the call
// stack only.
type Decoder struct {
	resolver *label.Resolver
}

// New builds a Decoder using resolver for custom/relation label resolution.
func New(resolver *label.Resolver) *Decoder {
	return &Decoder{resolver: resolver}
}

// Decode iterates cur to exhaustion, emitting one Person per contiguous run
// of rows sharing a contact_id, in cursor order. It always closes cur.
func (d *Decoder) Decode(ctx context.Context, cur ports.Cursor) ([]model.Person, error) {
	defer cur.Close()

	var people []model.Person
	var current *personAccumulator

	for cur.Next(ctx) {
		row := cur.Row()
		contactID := contactIDOf(row)

		if current == nil || current.id != contactID {
			if current != nil {
				people = append(people, current.build())
			}
			current = newPersonAccumulator(contactID)
			d.scaffold(current, row)
		}

		if err := d.applyRow(current, row); err != nil {
			return nil, fmt.Errorf("decode: contact %s: %w", contactID, err)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("decode: cursor iteration: %w", err)
	}
	if current != nil {
		people = append(people, current.build())
	}
	return people, nil
}

// contactIDOf reads contact_id as a string first (for sources whose ids are
// already strings, such as a remote API's resource names) and falls back to
// a decimal-formatted int64 (for a numeric contact_id column).
func contactIDOf(row ports.Row) string {
	if s := row.Str(ports.ColContactID); s != "" {
		return s
	}
	return strconv.FormatInt(row.Int64(ports.ColContactID), 10)
}

// scaffold sets the per-contact fields that are read once, from the first
// row seen for a contact_id, per spec §4.2.
func (d *Decoder) scaffold(acc *personAccumulator, row ports.Row) {
	acc.displayName = row.Str(ports.ColDisplayNamePrimary)
	acc.isImportant = row.Bool(ports.ColStarred)

	if lookupKey := row.Str(ports.ColLookupKey); lookupKey != "" {
		acc.externalURI = fmt.Sprintf("content://contacts/lookup/%s/%s", lookupKey, acc.id)
	}
	if thumb := row.Str(ports.ColPhotoThumbnailURI); thumb != "" {
		acc.imageURI = thumb
	}
	if phonetic := row.Str(ports.ColPhoneticName); phonetic != "" {
		acc.addPhonetic(phonetic)
	}
}

// applyRow dispatches one row to its mime-type handler. Unknown mime types
// are skipped silently per spec.
func (d *Decoder) applyRow(acc *personAccumulator, row ports.Row) error {
	switch row.Str(ports.ColMimeType) {
	case ports.MimeEmail:
		lbl := d.resolver.ContactPointLabel(row.Int64(ports.ColType) == typeCustom, row.Str(ports.ColLabel))
		if std, ok := standardLabel(emailTypeLabels, row.Int64(ports.ColType)); ok {
			lbl = std
		}
		acc.addEmail(lbl, row.Str(ports.ColAddress))

	case ports.MimePhone:
		lbl := d.resolver.ContactPointLabel(row.Int64(ports.ColType) == typeCustom, row.Str(ports.ColLabel))
		if std, ok := standardLabel(phoneTypeLabels, row.Int64(ports.ColType)); ok {
			lbl = std
		}
		acc.addPhone(lbl, row.Str(ports.ColAddress))

	case ports.MimePostal:
		lbl := d.resolver.ContactPointLabel(row.Int64(ports.ColType) == typeCustom, row.Str(ports.ColLabel))
		if std, ok := standardLabel(postalTypeLabels, row.Int64(ports.ColType)); ok {
			lbl = std
		}
		acc.addAddress(lbl, row.Str(ports.ColAddress))

	case ports.MimeNickname:
		acc.addNickname(row.Str(ports.ColNickname))

	case ports.MimeStructuredName:
		if row.Int64(ports.ColRawContactID) == row.Int64(ports.ColNameRawContactID) {
			acc.setStructuredName(row.Str(ports.ColGivenName), row.Str(ports.ColMiddleName), row.Str(ports.ColFamilyName))
		}

	case ports.MimeOrganization:
		acc.addAffiliation(row.Str(ports.ColOrgTitle), row.Str(ports.ColOrgDepartment), row.Str(ports.ColOrgCompany))

	case ports.MimeRelation:
		typeCode := row.Int64(ports.ColType)
		value := d.resolver.RelationLabel(row.Str(ports.ColRelationName), typeCode == typeCustom, row.Str(ports.ColLabel))
		if std, ok := standardLabel(relationTypeLabels, typeCode); ok && row.Str(ports.ColRelationName) == "" {
			value = std
		}
		acc.addRelation(value)

	case ports.MimeNote:
		acc.setNote(row.Str(ports.ColNote))

	default:
		// unknown mime-type: skip silently, per spec.
	}
	return nil
}
