// Package sqlite provides the SQLite-backed inkpad datastore.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/MrSnakeDoc/inkpad/internal/domain"
)

//go:embed schema.sql
var schema string

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Store persists identities, profiles, posts and comments in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}

	db, err := openDB("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// One connection keeps pragmas consistent and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ─── Identities ──────────────────────────────────────────────────────────────

// GetIdentity reads one identity row.
func (s *Store) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT handle, secret_hash, picture, profile_id, created_at
		 FROM identities WHERE id = ?`, id)

	identity := &domain.Identity{ID: id}
	var createdAt int64
	if err := row.Scan(&identity.Handle, &identity.SecretHash, &identity.Picture, &identity.ProfileID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, id)
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	identity.CreatedAt = fromUnixNano(createdAt)
	return identity, nil
}

// IdentityCards reads the display fields of ids in one query.
func (s *Store) IdentityCards(ctx context.Context, ids []string) (map[string]domain.IdentityCard, error) {
	cards := make(map[string]domain.IdentityCard, len(ids))
	if len(ids) == 0 {
		return cards, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, handle, picture FROM identities WHERE id IN (`+placeholders(len(ids))+`)`,
		anyArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get identity cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var card domain.IdentityCard
		if err := rows.Scan(&card.ID, &card.Handle, &card.Picture); err != nil {
			return nil, fmt.Errorf("scan identity card: %w", err)
		}
		cards[card.ID] = card
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity cards: %w", err)
	}
	return cards, nil
}

// ReplaceSecretHash updates the single secret_hash column.
func (s *Store) ReplaceSecretHash(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE identities SET secret_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("replace secret hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace secret hash: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, id)
	}
	return nil
}

// SaveIdentity upserts an identity.
func (s *Store) SaveIdentity(ctx context.Context, identity *domain.Identity) error {
	createdAt := identity.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (id, handle, secret_hash, picture, profile_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   handle = excluded.handle,
		   secret_hash = excluded.secret_hash,
		   picture = excluded.picture,
		   profile_id = excluded.profile_id`,
		identity.ID, identity.Handle, identity.SecretHash, identity.Picture, identity.ProfileID, toUnixNano(createdAt))
	if err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// ─── Profiles ────────────────────────────────────────────────────────────────

const profileColumns = `id, owner_id, name, title, bio, website, facebook, linkedin, github, picture, created_at, updated_at`

// FindProfileByOwner loads the profile owned by identityID with its collections.
func (s *Store) FindProfileByOwner(ctx context.Context, identityID string) (*domain.Profile, error) {
	return findProfileByOwner(ctx, s.db, identityID)
}

// CreateProfile inserts the profile and sets the identity back-reference in
// one transaction. UNIQUE(owner_id) rejects a second profile.
func (s *Store) CreateProfile(ctx context.Context, identityID string, fields domain.ProfileFields) (*domain.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create profile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var picture string
	err = tx.QueryRowContext(ctx, `SELECT picture FROM identities WHERE id = ?`, identityID).Scan(&picture)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrIdentityNotFound, identityID)
	}
	if err != nil {
		return nil, fmt.Errorf("get identity picture: %w", err)
	}

	now := s.now()
	profile := &domain.Profile{
		ID:        newID(),
		OwnerID:   identityID,
		Picture:   picture,
		Posts:     []string{},
		Bookmarks: []string{},
		CreatedAt: now,
	}
	profile.Apply(fields, now)

	if err := insertProfile(ctx, tx, profile); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateProfile
		}
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE identities SET profile_id = ? WHERE id = ?`, profile.ID, identityID); err != nil {
		return nil, fmt.Errorf("set identity profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateProfile
		}
		return nil, fmt.Errorf("commit create profile: %w", err)
	}
	return profile, nil
}

// UpdateProfileFields overwrites the editable columns.
func (s *Store) UpdateProfileFields(ctx context.Context, identityID string, fields domain.ProfileFields) (*domain.Profile, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET
		   name = ?, title = ?, bio = ?,
		   website = ?, facebook = ?, linkedin = ?, github = ?,
		   updated_at = ?
		 WHERE owner_id = ?`,
		fields.Name, fields.Title, fields.Bio,
		fields.Links.Website, fields.Links.Facebook, fields.Links.LinkedIn, fields.Links.GitHub,
		toUnixNano(s.now()), identityID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrProfileNotFound
	}
	return s.FindProfileByOwner(ctx, identityID)
}

// SaveProfile upserts a profile and replaces its collections.
func (s *Store) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save profile: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM profiles WHERE owner_id = ?`, profile.OwnerID).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get profile owner: %w", err)
	}
	if existing != "" && existing != profile.ID {
		return domain.ErrDuplicateProfile
	}

	createdAt, updatedAt := profile.CreatedAt, profile.UpdatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   owner_id = excluded.owner_id,
		   name = excluded.name,
		   title = excluded.title,
		   bio = excluded.bio,
		   website = excluded.website,
		   facebook = excluded.facebook,
		   linkedin = excluded.linkedin,
		   github = excluded.github,
		   picture = excluded.picture,
		   updated_at = excluded.updated_at`,
		profile.ID, profile.OwnerID, profile.Name, profile.Title, profile.Bio,
		profile.Links.Website, profile.Links.Facebook, profile.Links.LinkedIn, profile.Links.GitHub,
		profile.Picture, toUnixNano(createdAt), toUnixNano(updatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateProfile
		}
		return fmt.Errorf("save profile: %w", err)
	}

	if err := replaceCollection(ctx, tx, "profile_posts", profile.ID, profile.Posts); err != nil {
		return err
	}
	if err := replaceCollection(ctx, tx, "profile_bookmarks", profile.ID, profile.Bookmarks); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE identities SET profile_id = ? WHERE id = ?`, profile.ID, profile.OwnerID); err != nil {
		return fmt.Errorf("set identity profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save profile: %w", err)
	}
	return nil
}

func insertProfile(ctx context.Context, q queryer, p *domain.Profile) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Title, p.Bio,
		p.Links.Website, p.Links.Facebook, p.Links.LinkedIn, p.Links.GitHub,
		p.Picture, toUnixNano(p.CreatedAt), toUnixNano(p.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func findProfileByOwner(ctx context.Context, q queryer, identityID string) (*domain.Profile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE owner_id = ?`, identityID)

	var p domain.Profile
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Title, &p.Bio,
		&p.Links.Website, &p.Links.Facebook, &p.Links.LinkedIn, &p.Links.GitHub,
		&p.Picture, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p.CreatedAt = fromUnixNano(createdAt)
	p.UpdatedAt = fromUnixNano(updatedAt)

	if p.Posts, err = loadCollection(ctx, q, "profile_posts", p.ID); err != nil {
		return nil, err
	}
	if p.Bookmarks, err = loadCollection(ctx, q, "profile_bookmarks", p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

// table is always one of the two collection tables, never user input.
func loadCollection(ctx context.Context, q queryer, table, profileID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT post_id FROM `+table+` WHERE profile_id = ? ORDER BY position`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return ids, nil
}

func replaceCollection(ctx context.Context, q queryer, table, profileID string, ids []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE profile_id = ?`, profileID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for i, id := range ids {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO `+table+` (profile_id, position, post_id) VALUES (?, ?, ?)`,
			profileID, i, id); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Timestamps are stored as Unix nanoseconds; the zero time is stored as 0.
func toUnixNano(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UnixNano()
}

func fromUnixNano(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.Unix(0, value).UTC()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anyArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ domain.Store  = (*Store)(nil)
	_ domain.Seeder = (*Store)(nil)
)
