package peopleapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/people/v1"

	"github.com/cpindexer/cpindexer/internal/ports"
)

func TestResourceToID_StripsPrefix(t *testing.T) {
	assert.Equal(t, "c123", resourceToID("people/c123"))
}

func TestRowsForPerson_ScaffoldAndEmail(t *testing.T) {
	p := &people.Person{
		ResourceName: "people/c1",
		Names:        []*people.Name{{DisplayName: "Ada Lovelace", GivenName: "Ada", FamilyName: "Lovelace"}},
		EmailAddresses: []*people.EmailAddress{
			{Value: "ada@example.com", FormattedType: "Work"},
		},
	}

	rows := rowsForPerson(p)
	require.NotEmpty(t, rows)

	scaffold := rows[0]
	assert.Equal(t, "c1", scaffold.Str(ports.ColContactID))
	assert.Equal(t, "Ada Lovelace", scaffold.Str(ports.ColDisplayNamePrimary))
	assert.Equal(t, "application/vnd.cpindexer.scaffold", scaffold.Str(ports.ColMimeType))

	var sawName, sawEmail bool
	for _, row := range rows[1:] {
		switch row.Str(ports.ColMimeType) {
		case ports.MimeStructuredName:
			sawName = true
			assert.Equal(t, "Ada", row.Str(ports.ColGivenName))
		case ports.MimeEmail:
			sawEmail = true
			assert.Equal(t, "ada@example.com", row.Str(ports.ColAddress))
		}
	}
	assert.True(t, sawName)
	assert.True(t, sawEmail)
}

func TestRowsForPerson_NoNameSkipsStructuredNameRow(t *testing.T) {
	p := &people.Person{ResourceName: "people/c2"}
	rows := rowsForPerson(p)
	for _, row := range rows {
		assert.NotEqual(t, ports.MimeStructuredName, row.Str(ports.ColMimeType))
	}
}

func TestSliceCursor_IteratesInOrder(t *testing.T) {
	rows := []ports.Row{
		{ports.ColContactID: "a"},
		{ports.ColContactID: "b"},
	}
	cur := newSliceCursor(rows)

	var seen []string
	for cur.Next(nil) {
		seen = append(seen, cur.Row().Str(ports.ColContactID))
	}
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.NoError(t, cur.Err())
	assert.NoError(t, cur.Close())
}
