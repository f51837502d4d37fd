// Package sqlite is a reference ContactStore (the search index's upsert/
// delete/list-ids surface) backed by sqlx + modernc.org/sqlite, using an
// FTS5 virtual table with insert/delete/update triggers to keep it in
// sync with the backing rows. It is a working demonstration adapter — the
// hard core (internal/engine, internal/indexer, ...) only ever depends on
// the ports.ContactStore interface this type satisfies.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cpindexer/cpindexer/internal/model"
	"github.com/cpindexer/cpindexer/internal/ports"
)

var _ ports.ContactStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS people (
	id TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	given_name TEXT NOT NULL DEFAULT '',
	middle_name TEXT NOT NULL DEFAULT '',
	family_name TEXT NOT NULL DEFAULT '',
	additional_names TEXT NOT NULL DEFAULT '[]',
	external_uri TEXT NOT NULL DEFAULT '',
	image_uri TEXT NOT NULL DEFAULT '',
	is_important BOOLEAN NOT NULL DEFAULT 0,
	is_bot BOOLEAN NOT NULL DEFAULT 0,
	affiliations TEXT NOT NULL DEFAULT '[]',
	relations TEXT NOT NULL DEFAULT '[]',
	note TEXT NOT NULL DEFAULT '',
	contact_points TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE VIRTUAL TABLE IF NOT EXISTS people_fts USING fts5(
	display_name,
	given_name,
	family_name,
	note,
	content='people',
	content_rowid='rowid',
	tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS people_ai AFTER INSERT ON people BEGIN
	INSERT INTO people_fts(rowid, display_name, given_name, family_name, note)
	VALUES (new.rowid, new.display_name, new.given_name, new.family_name, new.note);
END;

CREATE TRIGGER IF NOT EXISTS people_ad AFTER DELETE ON people BEGIN
	INSERT INTO people_fts(people_fts, rowid, display_name, given_name, family_name, note)
	VALUES ('delete', old.rowid, old.display_name, old.given_name, old.family_name, old.note);
END;

CREATE TRIGGER IF NOT EXISTS people_au AFTER UPDATE ON people BEGIN
	INSERT INTO people_fts(people_fts, rowid, display_name, given_name, family_name, note)
	VALUES ('delete', old.rowid, old.display_name, old.given_name, old.family_name, old.note);
	INSERT INTO people_fts(rowid, display_name, given_name, family_name, note)
	VALUES (new.rowid, new.display_name, new.given_name, new.family_name, new.note);
END;
`

// Store is a ports.ContactStore over a local SQLite file.
type Store struct {
	db *sqlx.DB
}

// Open connects to (creating if absent) the SQLite file at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}

	db, err := sqlx.Connect("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RegisterSchema is a no-op beyond Open's schema creation unless force is
// set, in which case the FTS index is rebuilt from the base table.
func (s *Store) RegisterSchema(ctx context.Context, force bool) error {
	if !force {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO people_fts(people_fts) VALUES ('rebuild')`)
	if err != nil {
		return fmt.Errorf("sqlite: rebuild fts: %w", err)
	}
	return nil
}

// Upsert writes records with all-or-none semantics: every row is written in
// a single transaction, so a mid-batch failure rolls the whole batch back.
func (s *Store) Upsert(ctx context.Context, people []model.Person) error {
	if len(people) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO people (
	id, display_name, given_name, middle_name, family_name, additional_names,
	external_uri, image_uri, is_important, is_bot, affiliations, relations,
	note, contact_points, updated_at
) VALUES (
	:id, :display_name, :given_name, :middle_name, :family_name, :additional_names,
	:external_uri, :image_uri, :is_important, :is_bot, :affiliations, :relations,
	:note, :contact_points, CURRENT_TIMESTAMP
)
ON CONFLICT(id) DO UPDATE SET
	display_name = excluded.display_name,
	given_name = excluded.given_name,
	middle_name = excluded.middle_name,
	family_name = excluded.family_name,
	additional_names = excluded.additional_names,
	external_uri = excluded.external_uri,
	image_uri = excluded.image_uri,
	is_important = excluded.is_important,
	is_bot = excluded.is_bot,
	affiliations = excluded.affiliations,
	relations = excluded.relations,
	note = excluded.note,
	contact_points = excluded.contact_points,
	updated_at = excluded.updated_at
`
	for _, p := range people {
		row, err := toRow(p)
		if err != nil {
			return fmt.Errorf("sqlite: encode person %s: %w", p.ID, err)
		}
		if _, err := tx.NamedExecContext(ctx, stmt, row); err != nil {
			return fmt.Errorf("sqlite: upsert person %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit upsert tx: %w", err)
	}
	return nil
}

// DeleteByID removes rows by id with all-or-none semantics.
func (s *Store) DeleteByID(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM people WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("sqlite: build delete query: %w", err)
	}
	query = s.db.Rebind(query)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: delete by id: %w", err)
	}
	return nil
}

// ListAllIDs returns every id currently stored.
func (s *Store) ListAllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM people ORDER BY id`); err != nil {
		return nil, fmt.Errorf("sqlite: list all ids: %w", err)
	}
	return ids, nil
}

// personRow is the flattened, JSON-encoded row shape written via NamedExec.
type personRow struct {
	ID              string `db:"id"`
	DisplayName     string `db:"display_name"`
	GivenName       string `db:"given_name"`
	MiddleName      string `db:"middle_name"`
	FamilyName      string `db:"family_name"`
	AdditionalNames string `db:"additional_names"`
	ExternalURI     string `db:"external_uri"`
	ImageURI        string `db:"image_uri"`
	IsImportant     bool   `db:"is_important"`
	IsBot           bool   `db:"is_bot"`
	Affiliations    string `db:"affiliations"`
	Relations       string `db:"relations"`
	Note            string `db:"note"`
	ContactPoints   string `db:"contact_points"`
}

func toRow(p model.Person) (personRow, error) {
	names, err := json.Marshal(p.AdditionalNames)
	if err != nil {
		return personRow{}, err
	}
	affiliations, err := json.Marshal(p.Affiliations)
	if err != nil {
		return personRow{}, err
	}
	relations, err := json.Marshal(p.Relations)
	if err != nil {
		return personRow{}, err
	}
	points, err := json.Marshal(p.ContactPoints)
	if err != nil {
		return personRow{}, err
	}
	return personRow{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		GivenName:       p.GivenName,
		MiddleName:      p.MiddleName,
		FamilyName:      p.FamilyName,
		AdditionalNames: string(names),
		ExternalURI:     p.ExternalURI,
		ImageURI:        p.ImageURI,
		IsImportant:     p.IsImportant,
		IsBot:           p.IsBot,
		Affiliations:    string(affiliations),
		Relations:       string(relations),
		Note:            p.Note,
		ContactPoints:   string(points),
	}, nil
}

// Get returns a stored Person by id for test/demo inspection. It is not
// part of ports.ContactStore (the interface has no read-one operation).
func (s *Store) Get(ctx context.Context, id string) (model.Person, error) {
	var row personRow
	err := s.db.GetContext(ctx, &row, `
SELECT id, display_name, given_name, middle_name, family_name, additional_names,
	external_uri, image_uri, is_important, is_bot, affiliations, relations,
	note, contact_points
FROM people WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return model.Person{}, fmt.Errorf("sqlite: person %s not found", id)
	}
	if err != nil {
		return model.Person{}, fmt.Errorf("sqlite: get person %s: %w", id, err)
	}
	return fromRow(row)
}

func fromRow(row personRow) (model.Person, error) {
	var names []model.AdditionalName
	if err := json.Unmarshal([]byte(row.AdditionalNames), &names); err != nil {
		return model.Person{}, err
	}
	var affiliations []string
	if err := json.Unmarshal([]byte(row.Affiliations), &affiliations); err != nil {
		return model.Person{}, err
	}
	var relations []string
	if err := json.Unmarshal([]byte(row.Relations), &relations); err != nil {
		return model.Person{}, err
	}
	var points []model.ContactPoint
	if err := json.Unmarshal([]byte(row.ContactPoints), &points); err != nil {
		return model.Person{}, err
	}
	return model.Person{
		ID:              row.ID,
		DisplayName:     row.DisplayName,
		GivenName:       row.GivenName,
		MiddleName:      row.MiddleName,
		FamilyName:      row.FamilyName,
		AdditionalNames: names,
		ExternalURI:     row.ExternalURI,
		ImageURI:        row.ImageURI,
		IsImportant:     row.IsImportant,
		IsBot:           row.IsBot,
		Affiliations:    affiliations,
		Relations:       relations,
		Note:            row.Note,
		ContactPoints:   points,
	}, nil
}
