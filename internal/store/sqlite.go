package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/normalize"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	// Pragmas go through the DSN so the driver applies them to every pooled
	// connection; busy_timeout and synchronous are per-connection settings.
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	return &SQLiteStore{db: db}, nil
}

// The partial unique index on (source, source_id) is a backstop for the
// resolver's dedup guarantee: even a racing import cannot create two leads
// with the same platform identity.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	source            TEXT NOT NULL,
	source_id         TEXT NOT NULL DEFAULT '',
	name              TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	phone             TEXT NOT NULL DEFAULT '',
	phone_key         TEXT NOT NULL DEFAULT '',
	username          TEXT NOT NULL DEFAULT '',
	profile_url       TEXT NOT NULL DEFAULT '',
	bio               TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	messages          TEXT,
	comments          TEXT,
	score             INTEGER NOT NULL DEFAULT 0,
	tier              TEXT NOT NULL DEFAULT 'cold',
	score_breakdown   TEXT,
	status            TEXT NOT NULL DEFAULT 'new',
	tags              TEXT,
	raw_data          TEXT,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL,
	last_scored_at    DATETIME,
	last_contacted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_source_source_id ON leads(source, source_id) WHERE source_id != '';
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email) WHERE email != '';
CREATE INDEX IF NOT EXISTS idx_leads_phone_key ON leads(phone_key) WHERE phone_key != '';
CREATE INDEX IF NOT EXISTS idx_leads_username ON leads(source, username) WHERE username != '';
CREATE INDEX IF NOT EXISTS idx_leads_tier ON leads(tier);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);

CREATE TABLE IF NOT EXISTS interactions (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	type       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	metadata   TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interactions_lead_id ON interactions(lead_id);
CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const leadColumns = `id, source, source_id, name, email, phone, username, profile_url, bio, notes,
	messages, comments, score, tier, score_breakdown, status, tags, raw_data,
	created_at, updated_at, last_scored_at, last_contacted_at`

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	enc, err := encodeLead(lead)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode lead")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, source, source_id, name, email, phone, phone_key, username, profile_url, bio, notes,
			messages, comments, score, tier, score_breakdown, status, tags, raw_data,
			created_at, updated_at, last_scored_at, last_contacted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Source, lead.SourceID, lead.Name, lead.Email, lead.Phone,
		normalize.PhoneKey(lead.Phone), lead.Username, lead.ProfileURL, lead.Bio, lead.Notes,
		enc.messages, enc.comments, lead.Score, string(lead.Tier), enc.breakdown,
		string(lead.Status), enc.tags, enc.rawData,
		lead.CreatedAt, lead.UpdatedAt, nullTime(lead.LastScoredAt), nullTime(lead.LastContactedAt),
	)
	return eris.Wrapf(err, "sqlite: insert lead %s", lead.ID)
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	enc, err := encodeLead(lead)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode lead")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET name = ?, email = ?, phone = ?, phone_key = ?, username = ?, profile_url = ?,
			bio = ?, notes = ?, messages = ?, comments = ?, score = ?, tier = ?, score_breakdown = ?,
			status = ?, tags = ?, raw_data = ?, updated_at = ?, last_scored_at = ?, last_contacted_at = ?
		 WHERE id = ?`,
		lead.Name, lead.Email, lead.Phone, normalize.PhoneKey(lead.Phone), lead.Username, lead.ProfileURL,
		lead.Bio, lead.Notes, enc.messages, enc.comments, lead.Score, string(lead.Tier), enc.breakdown,
		string(lead.Status), enc.tags, enc.rawData,
		lead.UpdatedAt, nullTime(lead.LastScoredAt), nullTime(lead.LastContactedAt),
		lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", lead.ID)
	}
	return checkRowsAffected(res, "lead", lead.ID)
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("lead not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return lead, nil
}

func (s *SQLiteStore) FindBySourceID(ctx context.Context, source, sourceID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE source = ? AND source_id = ? LIMIT 1`,
		source, sourceID)
	return findOne(row, "sqlite: find by source id")
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = ? AND email != '' LIMIT 1`,
		email)
	return findOne(row, "sqlite: find by email")
}

func (s *SQLiteStore) FindByPhone(ctx context.Context, phoneKey string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone_key = ? AND phone_key != '' LIMIT 1`,
		phoneKey)
	return findOne(row, "sqlite: find by phone")
}

func (s *SQLiteStore) FindByUsername(ctx context.Context, source, username string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE source = ? AND username = ? AND username != '' LIMIT 1`,
		source, username)
	return findOne(row, "sqlite: find by username")
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Tier != "" {
		query += ` AND tier = ?`
		args = append(args, string(filter.Tier))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.MinScore != nil {
		query += ` AND score >= ?`
		args = append(args, *filter.MinScore)
	}
	query += ` ORDER BY score DESC, updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()
	return collectLeads(rows, "sqlite: list leads")
}

func (s *SQLiteStore) SearchLeads(ctx context.Context, query string, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE name LIKE ? OR email LIKE ? OR username LIKE ? OR bio LIKE ? OR notes LIKE ?
		 ORDER BY score DESC LIMIT ?`,
		pattern, pattern, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search leads")
	}
	defer rows.Close()
	return collectLeads(rows, "sqlite: search leads")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByTier:   map[model.Tier]int{},
		ByStatus: map[model.LeadStatus]int{},
		BySource: map[string]int{},
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&stats.Total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count leads")
	}

	for _, group := range []struct {
		column string
		add    func(key string, n int)
	}{
		{"tier", func(k string, n int) { stats.ByTier[model.Tier(k)] = n }},
		{"status", func(k string, n int) { stats.ByStatus[model.LeadStatus(k)] = n }},
		{"source", func(k string, n int) { stats.BySource[k] = n }},
	} {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+group.column+`, COUNT(*) FROM leads GROUP BY `+group.column)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: stats by %s", group.column)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "sqlite: scan stats by %s", group.column)
			}
			group.add(key, n)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, eris.Wrapf(err, "sqlite: stats by %s iterate", group.column)
		}
		rows.Close()
	}
	return stats, nil
}

func (s *SQLiteStore) AddInteraction(ctx context.Context, in *model.Interaction) error {
	metaJSON, err := marshalOrNull(in.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal interaction metadata")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, lead_id, type, content, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.LeadID, string(in.Type), in.Content, metaJSON, in.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert interaction for lead %s", in.LeadID)
}

func (s *SQLiteStore) ListInteractions(ctx context.Context, leadID string, limit int) ([]model.Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, type, content, metadata, created_at FROM interactions
		 WHERE lead_id = ? ORDER BY created_at DESC LIMIT ?`,
		leadID, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list interactions for lead %s", leadID)
	}
	defer rows.Close()

	var out []model.Interaction
	for rows.Next() {
		var in model.Interaction
		var metaJSON sql.NullString
		if err := rows.Scan(&in.ID, &in.LeadID, &in.Type, &in.Content, &metaJSON, &in.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan interaction")
		}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &in.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal interaction metadata")
			}
		}
		out = append(out, in)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list interactions iterate")
}

// helpers shared by both backends

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// encodedLead holds the JSON column values for one lead row.
type encodedLead struct {
	messages  sql.NullString
	comments  sql.NullString
	breakdown sql.NullString
	tags      sql.NullString
	rawData   sql.NullString
}

func encodeLead(lead *model.Lead) (*encodedLead, error) {
	enc := &encodedLead{}
	for _, f := range []struct {
		dst *sql.NullString
		val any
	}{
		{&enc.messages, lead.Messages},
		{&enc.comments, lead.Comments},
		{&enc.tags, lead.Tags},
		{&enc.rawData, lead.RawData},
	} {
		s, err := marshalOrNull(f.val)
		if err != nil {
			return nil, err
		}
		*f.dst = s
	}
	if lead.ScoreBreakdown != nil {
		b, err := json.Marshal(lead.ScoreBreakdown)
		if err != nil {
			return nil, err
		}
		enc.breakdown = sql.NullString{String: string(b), Valid: true}
	}
	return enc, nil
}

// marshalOrNull encodes v to JSON, mapping empty slices and maps to SQL NULL.
func marshalOrNull(v any) (sql.NullString, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []map[string]any:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case map[string]any:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case nil:
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// scanLead reads one lead row in leadColumns order. sql.ErrNoRows and
// pgx.ErrNoRows pass through unwrapped so callers can map them.
func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var messages, comments, breakdown, tags, rawData sql.NullString
	var lastScored, lastContacted sql.NullTime

	err := row.Scan(
		&l.ID, &l.Source, &l.SourceID, &l.Name, &l.Email, &l.Phone, &l.Username,
		&l.ProfileURL, &l.Bio, &l.Notes,
		&messages, &comments, &l.Score, &l.Tier, &breakdown, &l.Status, &tags, &rawData,
		&l.CreatedAt, &l.UpdatedAt, &lastScored, &lastContacted,
	)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		src sql.NullString
		dst any
	}{
		{messages, &l.Messages},
		{comments, &l.Comments},
		{tags, &l.Tags},
		{rawData, &l.RawData},
	} {
		if f.src.Valid && f.src.String != "" {
			if err := json.Unmarshal([]byte(f.src.String), f.dst); err != nil {
				return nil, eris.Wrap(err, "unmarshal lead column")
			}
		}
	}
	if breakdown.Valid && breakdown.String != "" {
		l.ScoreBreakdown = &model.ScoreBreakdown{}
		if err := json.Unmarshal([]byte(breakdown.String), l.ScoreBreakdown); err != nil {
			return nil, eris.Wrap(err, "unmarshal score breakdown")
		}
	}
	if lastScored.Valid {
		t := lastScored.Time
		l.LastScoredAt = &t
	}
	if lastContacted.Valid {
		t := lastContacted.Time
		l.LastContactedAt = &t
	}
	return &l, nil
}

// findOne maps the no-rows case to (nil, nil) for identity lookups.
func findOne(row scannable, msg string) (*model.Lead, error) {
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, msg)
	}
	return lead, nil
}

func collectLeads(rows *sql.Rows, msg string) ([]model.Lead, error) {
	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, msg)
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), msg+" iterate")
}
