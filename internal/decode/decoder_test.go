package decode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpindexer/cpindexer/internal/decode"
	"github.com/cpindexer/cpindexer/internal/decode/label"
	"github.com/cpindexer/cpindexer/internal/ports"
	"github.com/cpindexer/cpindexer/internal/testutil"
)

func newDecoder() *decode.Decoder {
	return decode.New(label.NewResolver("en-US"))
}

func TestDecode_SingleContactScaffoldAndEmail(t *testing.T) {
	rows := []ports.Row{
		{
			ports.ColContactID:          int64(1),
			ports.ColDisplayNamePrimary: "Ada Lovelace",
			ports.ColLookupKey:          "abc123",
			ports.ColStarred:            true,
			ports.ColMimeType:           ports.MimeEmail,
			ports.ColAddress:            "ada@example.com",
			ports.ColType:               int64(2), // work
		},
	}
	cur := testutil.NewSliceCursor(rows...)

	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, people, 1)

	p := people[0]
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, "Ada Lovelace", p.DisplayName)
	assert.True(t, p.IsImportant)
	assert.Equal(t, "content://contacts/lookup/abc123/1", p.ExternalURI)
	require.Len(t, p.ContactPoints, 1)
	assert.Equal(t, "Work", p.ContactPoints[0].Label)
	assert.Equal(t, []string{"ada@example.com"}, p.ContactPoints[0].Emails)
}

func TestDecode_MultipleContactsSplitOnBoundary(t *testing.T) {
	rows := []ports.Row{
		{ports.ColContactID: int64(1), ports.ColDisplayNamePrimary: "Ada", ports.ColMimeType: ports.MimeEmail, ports.ColAddress: "ada@example.com", ports.ColType: int64(2)},
		{ports.ColContactID: int64(2), ports.ColDisplayNamePrimary: "Grace", ports.ColMimeType: ports.MimeEmail, ports.ColAddress: "grace@example.com", ports.ColType: int64(1)},
	}
	cur := testutil.NewSliceCursor(rows...)

	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "1", people[0].ID)
	assert.Equal(t, "2", people[1].ID)
}

func TestDecode_SameLabelCombinesIntoOnePoint(t *testing.T) {
	rows := []ports.Row{
		{ports.ColContactID: int64(1), ports.ColDisplayNamePrimary: "Ada", ports.ColMimeType: ports.MimeEmail, ports.ColAddress: "ada@work.com", ports.ColType: int64(2)},
		{ports.ColContactID: int64(1), ports.ColMimeType: ports.MimePhone, ports.ColAddress: "555-0100", ports.ColType: int64(3)}, // phone work
	}
	cur := testutil.NewSliceCursor(rows...)

	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, people, 1)
	require.Len(t, people[0].ContactPoints, 1)
	assert.Equal(t, "Work", people[0].ContactPoints[0].Label)
	assert.Equal(t, []string{"ada@work.com"}, people[0].ContactPoints[0].Emails)
	assert.Equal(t, []string{"555-0100"}, people[0].ContactPoints[0].Phones)
}

func TestDecode_CustomLabelFallsBackToLocalizedCustom(t *testing.T) {
	rows := []ports.Row{
		{ports.ColContactID: int64(1), ports.ColMimeType: ports.MimeEmail, ports.ColAddress: "a@b.com", ports.ColType: int64(0), ports.ColLabel: ""},
	}
	cur := testutil.NewSliceCursor(rows...)

	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Custom", people[0].ContactPoints[0].Label)
}

func TestDecode_StructuredNameOnlyFromMatchingRawContact(t *testing.T) {
	rows := []ports.Row{
		{
			ports.ColContactID:        int64(1),
			ports.ColMimeType:         ports.MimeStructuredName,
			ports.ColRawContactID:     int64(10),
			ports.ColNameRawContactID: int64(99), // mismatch, must be ignored
			ports.ColGivenName:        "Wrong",
		},
		{
			ports.ColContactID:        int64(1),
			ports.ColMimeType:         ports.MimeStructuredName,
			ports.ColRawContactID:     int64(10),
			ports.ColNameRawContactID: int64(10),
			ports.ColGivenName:        "Ada",
			ports.ColFamilyName:       "Lovelace",
		},
	}
	cur := testutil.NewSliceCursor(rows...)

	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Ada", people[0].GivenName)
	assert.Equal(t, "Lovelace", people[0].FamilyName)
}

func TestDecode_UnknownMimeTypeSkippedSilently(t *testing.T) {
	rows := []ports.Row{
		{ports.ColContactID: int64(1), ports.ColMimeType: "application/x-unknown"},
		{ports.ColContactID: int64(1), ports.ColMimeType: ports.MimeEmail, ports.ColAddress: "a@b.com", ports.ColType: int64(1)},
	}
	cur := testutil.NewSliceCursor(rows...)

	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Len(t, people[0].ContactPoints, 1)
}

func TestDecode_StringContactIDSupportedDirectly(t *testing.T) {
	rows := []ports.Row{
		{ports.ColContactID: "people/c123", ports.ColMimeType: ports.MimeEmail, ports.ColAddress: "a@b.com", ports.ColType: int64(1)},
	}
	cur := testutil.NewSliceCursor(rows...)

	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "people/c123", people[0].ID)
}

func TestDecode_EmptyCursorYieldsNoPeople(t *testing.T) {
	cur := testutil.NewSliceCursor()
	people, err := newDecoder().Decode(context.Background(), cur)
	require.NoError(t, err)
	assert.Empty(t, people)
}
