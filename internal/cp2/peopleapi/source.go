// Package peopleapi is a reference ContactSource backed by the Google
// People API, using an OAuth2 client (golang.org/x/oauth2 +
// golang.org/x/oauth2/google) scoped to read-only contacts access. It is
// a working demonstration adapter; the hard core only ever depends on
// ports.ContactSource.
package peopleapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/cpindexer/cpindexer/internal/ports"
)

// ContactsScope is the read-only People API scope this adapter needs.
const ContactsScope = "https://www.googleapis.com/auth/contacts.readonly"

// OAuth2Config builds the oauth2.Config for the People API, mirroring the
// teacher's GetOAuth2Config shape with the contacts scope in place of
// Gmail's IMAP scope.
func OAuth2Config(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{ContactsScope},
		RedirectURL:  redirectURL,
	}
}

// Source is a ports.ContactSource over one user's Google Contacts.
type Source struct {
	svc *people.Service

	mu            sync.Mutex
	syncToken     string
	changeHandlers []func()
}

// New builds a Source using client for People API calls (typically
// oauth2Config.Client(ctx, token)).
func New(ctx context.Context, client *http.Client) (*Source, error) {
	svc, err := people.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("peopleapi: build service: %w", err)
	}
	return &Source{svc: svc}, nil
}

// UpdatedIDsSince does not filter by tsMs; it relies on the People API's own
// sync-token mechanism (the API has no timestamp filter). tsMs is only used
// as the returned MaxTSMs, since the API reports no per-person timestamps.
// A 410 Gone from an expired token clears the stored token and returns an
// error; the next call, having no token, lists every connection.
func (s *Source) UpdatedIDsSince(ctx context.Context, tsMs int64) (ports.IDTimestamp, error) {
	ids, maxTS, err := s.listChanged(ctx, false)
	if err != nil {
		return ports.IDTimestamp{MaxTSMs: tsMs}, err
	}
	if maxTS < tsMs {
		maxTS = tsMs
	}
	return ports.IDTimestamp{IDs: ids, MaxTSMs: maxTS}, nil
}

// DeletedIDsSince returns resource names of connections the last sync
// reported as deleted.
func (s *Source) DeletedIDsSince(ctx context.Context, tsMs int64) (ports.IDTimestamp, error) {
	ids, maxTS, err := s.listChanged(ctx, true)
	if err != nil {
		return ports.IDTimestamp{MaxTSMs: tsMs}, err
	}
	if maxTS < tsMs {
		maxTS = tsMs
	}
	return ports.IDTimestamp{IDs: ids, MaxTSMs: maxTS}, nil
}

// listChanged pages through People.Connections.List with sync-token based
// incremental sync, splitting results by metadata.deleted per wantDeleted.
func (s *Source) listChanged(ctx context.Context, wantDeleted bool) ([]string, int64, error) {
	s.mu.Lock()
	token := s.syncToken
	s.mu.Unlock()

	var ids []string
	var maxTS int64
	var nextToken string
	pageToken := ""

	for {
		call := s.svc.People.Connections.List("people/me").
			PersonFields("metadata").
			RequestSyncToken(true).
			PageSize(200).
			Context(ctx)
		if token != "" {
			call = call.SyncToken(token)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			var gerr *googleapi.Error
			if errors.As(err, &gerr) && gerr.Code == http.StatusGone {
				s.mu.Lock()
				s.syncToken = ""
				s.mu.Unlock()
				return nil, 0, fmt.Errorf("peopleapi: sync token expired, full resync required: %w", err)
			}
			return nil, 0, fmt.Errorf("peopleapi: list connections: %w", err)
		}

		for _, p := range resp.Connections {
			deleted := p.Metadata != nil && p.Metadata.Deleted
			if deleted != wantDeleted {
				continue
			}
			ids = append(ids, resourceToID(p.ResourceName))
			maxTS = 0 // People API metadata carries no per-person update timestamp usable here.
		}

		if resp.NextSyncToken != "" {
			nextToken = resp.NextSyncToken
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	if nextToken != "" {
		s.mu.Lock()
		s.syncToken = nextToken
		s.mu.Unlock()
	}
	return ids, maxTS, nil
}

// QueryContacts fetches the given ids via GetBatchGet and synthesizes the
// row stream the generic decoder expects: for each person, a scaffolding row
// followed by one row per value, tagged with the fixed mime-type set. Each
// person's rows are contiguous; persons appear in the order the API returns
// them, not sorted by contact_id.
func (s *Source) QueryContacts(ctx context.Context, ids []string, _ map[string]struct{}) (ports.Cursor, error) {
	if len(ids) == 0 {
		return newSliceCursor(nil), nil
	}

	resourceNames := make([]string, len(ids))
	for i, id := range ids {
		resourceNames[i] = "people/" + id
	}

	resp, err := s.svc.People.GetBatchGet().
		ResourceNames(resourceNames...).
		PersonFields("names,emailAddresses,phoneNumbers,addresses,nicknames,organizations,relations,biographies,photos").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("peopleapi: batch get: %w", err)
	}

	var rows []ports.Row
	for _, result := range resp.Responses {
		if result.Person == nil {
			continue
		}
		rows = append(rows, rowsForPerson(result.Person)...)
	}
	return newSliceCursor(rows), nil
}

// SubscribeChanges registers a local callback; the People API has no push
// mechanism of its own, so the caller is expected to invoke NotifyPoll
// periodically (e.g. from a scheduler) to drive this.
func (s *Source) SubscribeChanges(onChange func()) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changeHandlers = append(s.changeHandlers, onChange)
	idx := len(s.changeHandlers) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.changeHandlers) {
			s.changeHandlers[idx] = nil
		}
	}
}

// NotifyPoll invokes every subscribed handler; call this from whatever
// polling loop stands in for a push notification for this provider.
func (s *Source) NotifyPoll() {
	s.mu.Lock()
	handlers := append([]func(){}, s.changeHandlers...)
	s.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h()
		}
	}
}

// SyncInProgress always reports false: the People API has no ambient
// long-running sync concept of its own.
func (s *Source) SyncInProgress(ctx context.Context) bool {
	return false
}

func resourceToID(resourceName string) string {
	return strings.TrimPrefix(resourceName, "people/")
}

var _ ports.ContactSource = (*Source)(nil)
