package peopleapi

import (
	"context"

	"google.golang.org/api/people/v1"

	"github.com/cpindexer/cpindexer/internal/ports"
)

// sliceCursor adapts a pre-built []ports.Row to ports.Cursor, since the
// People API returns whole Person objects rather than a row-oriented
// database cursor.
type sliceCursor struct {
	rows []ports.Row
	pos  int
}

func newSliceCursor(rows []ports.Row) *sliceCursor {
	return &sliceCursor{rows: rows, pos: -1}
}

func (c *sliceCursor) Next(ctx context.Context) bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *sliceCursor) Row() ports.Row { return c.rows[c.pos] }
func (c *sliceCursor) Err() error     { return nil }
func (c *sliceCursor) Close() error   { return nil }

// rowsForPerson synthesizes the CP2-style row stream for one People API
// Person: a scaffolding row (display name, starred, photo) followed by one
// row per contact-modal value, each tagged with the canonical mime type the
// generic decoder dispatches on.
func rowsForPerson(p *people.Person) []ports.Row {
	id := resourceToID(p.ResourceName)

	var rows []ports.Row
	displayName := ""
	given, middle, family := "", "", ""
	if len(p.Names) > 0 {
		n := p.Names[0]
		displayName = n.DisplayName
		given, middle, family = n.GivenName, n.MiddleName, n.FamilyName
	}
	photoURI := ""
	for _, photo := range p.Photos {
		if photo.Default {
			continue
		}
		photoURI = photo.Url
		break
	}
	if photoURI == "" && len(p.Photos) > 0 {
		photoURI = p.Photos[0].Url
	}

	scaffold := ports.Row{
		ports.ColContactID:          id,
		ports.ColDisplayNamePrimary: displayName,
		ports.ColLookupKey:          id,
		ports.ColPhotoThumbnailURI:  photoURI,
		ports.ColStarred:            false,
		ports.ColMimeType:           "application/vnd.cpindexer.scaffold",
	}
	rows = append(rows, scaffold)

	if given != "" || middle != "" || family != "" {
		rows = append(rows, ports.Row{
			ports.ColContactID:        id,
			ports.ColMimeType:         ports.MimeStructuredName,
			ports.ColRawContactID:     int64(0),
			ports.ColNameRawContactID: int64(0),
			ports.ColGivenName:        given,
			ports.ColMiddleName:       middle,
			ports.ColFamilyName:       family,
		})
	}

	for _, e := range p.EmailAddresses {
		rows = append(rows, ports.Row{
			ports.ColContactID: id,
			ports.ColMimeType:  ports.MimeEmail,
			ports.ColAddress:   e.Value,
			ports.ColLabel:     e.FormattedType,
			ports.ColType:      int64(0),
		})
	}
	for _, ph := range p.PhoneNumbers {
		rows = append(rows, ports.Row{
			ports.ColContactID: id,
			ports.ColMimeType:  ports.MimePhone,
			ports.ColAddress:   ph.Value,
			ports.ColLabel:     ph.FormattedType,
			ports.ColType:      int64(0),
		})
	}
	for _, addr := range p.Addresses {
		rows = append(rows, ports.Row{
			ports.ColContactID: id,
			ports.ColMimeType:  ports.MimePostal,
			ports.ColAddress:   addr.FormattedValue,
			ports.ColLabel:     addr.FormattedType,
			ports.ColType:      int64(0),
		})
	}
	for _, nick := range p.Nicknames {
		rows = append(rows, ports.Row{
			ports.ColContactID: id,
			ports.ColMimeType:  ports.MimeNickname,
			ports.ColNickname:  nick.Value,
		})
	}
	for _, org := range p.Organizations {
		rows = append(rows, ports.Row{
			ports.ColContactID:    id,
			ports.ColMimeType:     ports.MimeOrganization,
			ports.ColOrgTitle:     org.Title,
			ports.ColOrgDepartment: org.Department,
			ports.ColOrgCompany:   org.Name,
		})
	}
	for _, rel := range p.Relations {
		rows = append(rows, ports.Row{
			ports.ColContactID:   id,
			ports.ColMimeType:    ports.MimeRelation,
			ports.ColRelationName: rel.Person,
			ports.ColLabel:       rel.FormattedType,
			ports.ColType:        int64(0),
		})
	}
	for _, bio := range p.Biographies {
		rows = append(rows, ports.Row{
			ports.ColContactID: id,
			ports.ColMimeType:  ports.MimeNote,
			ports.ColNote:      bio.Value,
		})
	}

	return rows
}
