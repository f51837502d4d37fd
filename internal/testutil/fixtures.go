// Package testutil provides shared mocks and fixtures for cpindexer's
// package-level test suites, grounded on the teacher's testutil conventions.
package testutil

import (
	"context"

	"github.com/cpindexer/cpindexer/internal/model"
	"github.com/cpindexer/cpindexer/internal/ports"
)

// TestPerson returns a representative single-contact-point Person.
func TestPerson() model.Person {
	return model.Person{
		ID:          "contact-1",
		DisplayName: "Ada Lovelace",
		GivenName:   "Ada",
		FamilyName:  "Lovelace",
		ExternalURI: "content://contacts/lookup/abc123/contact-1",
		ContactPoints: []model.ContactPoint{
			{Label: "Work", Emails: []string{"ada@example.com"}},
		},
	}
}

// TestPersonWithRelations returns a Person exercising additional names,
// affiliations, and relations, per the decoder's fuller accumulation path.
func TestPersonWithRelations() model.Person {
	return model.Person{
		ID:          "contact-2",
		DisplayName: "Grace Hopper",
		GivenName:   "Grace",
		FamilyName:  "Hopper",
		ExternalURI: "content://contacts/lookup/def456/contact-2",
		AdditionalNames: []model.AdditionalName{
			{Kind: model.NameKindNickname, Value: "Amazing Grace"},
		},
		Affiliations: []string{"US Navy, Rear Admiral"},
		Relations:    []string{"Manager: Howard Aiken"},
		ContactPoints: []model.ContactPoint{
			{Label: "Work", Emails: []string{"grace@navy.example"}, Phones: []string{"555-0100"}},
			{Label: "Home", Emails: []string{"grace@home.example"}},
		},
	}
}

// TestScaffoldRow returns the minimal first-seen row for a contact, setting
// display name, lookup key, and starred status.
func TestScaffoldRow(contactID string) ports.Row {
	return ports.Row{
		ports.ColContactID:          contactID,
		ports.ColDisplayNamePrimary: "Ada Lovelace",
		ports.ColLookupKey:          "abc123",
		ports.ColStarred:            true,
		ports.ColMimeType:           ports.MimeEmail,
		ports.ColAddress:            "ada@example.com",
		ports.ColType:               int64(2), // work
		ports.ColIsPrimary:          true,
		ports.ColIsSuperPrimary:     true,
	}
}

// SliceCursor is an in-memory ports.Cursor over a fixed row slice, for tests
// that don't need a real database or API round trip.
type SliceCursor struct {
	Rows []ports.Row
	pos  int
	Err_ error
}

func NewSliceCursor(rows ...ports.Row) *SliceCursor {
	return &SliceCursor{Rows: rows, pos: -1}
}

func (c *SliceCursor) Next(ctx context.Context) bool {
	c.pos++
	return c.pos < len(c.Rows)
}

func (c *SliceCursor) Row() ports.Row { return c.Rows[c.pos] }
func (c *SliceCursor) Err() error     { return c.Err_ }
func (c *SliceCursor) Close() error   { return nil }

var _ ports.Cursor = (*SliceCursor)(nil)
