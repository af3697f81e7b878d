package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/db"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
	"github.com/ctdebnam-png/TD-Realty-Social/internal/normalize"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection. The
// identity lookups run four times per imported contact, so they dominate.
var preparedStatements = map[string]string{
	"find_by_source_id": `SELECT ` + leadColumns + ` FROM leads WHERE source = $1 AND source_id = $2 LIMIT 1`,
	"find_by_email":     `SELECT ` + leadColumns + ` FROM leads WHERE email = $1 AND email <> '' LIMIT 1`,
	"find_by_phone":     `SELECT ` + leadColumns + ` FROM leads WHERE phone_key = $1 AND phone_key <> '' LIMIT 1`,
	"find_by_username":  `SELECT ` + leadColumns + ` FROM leads WHERE source = $1 AND username = $2 AND username <> '' LIMIT 1`,
	"get_lead":          `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`,
	"insert_interaction": `INSERT INTO interactions (id, lead_id, type, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
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
	messages          JSONB,
	comments          JSONB,
	score             INTEGER NOT NULL DEFAULT 0,
	tier              TEXT NOT NULL DEFAULT 'cold',
	score_breakdown   JSONB,
	status            TEXT NOT NULL DEFAULT 'new',
	tags              JSONB,
	raw_data          JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_scored_at    TIMESTAMPTZ,
	last_contacted_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_source_source_id ON leads(source, source_id) WHERE source_id <> '';
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email) WHERE email <> '';
CREATE INDEX IF NOT EXISTS idx_leads_phone_key ON leads(phone_key) WHERE phone_key <> '';
CREATE INDEX IF NOT EXISTS idx_leads_username ON leads(source, username) WHERE username <> '';
CREATE INDEX IF NOT EXISTS idx_leads_tier ON leads(tier);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score DESC);

CREATE TABLE IF NOT EXISTS interactions (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	type       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	metadata   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_interactions_lead_id ON interactions(lead_id);
CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	enc, err := encodeLead(lead)
	if err != nil {
		return eris.Wrap(err, "postgres: encode lead")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (id, source, source_id, name, email, phone, phone_key, username, profile_url, bio, notes,
			messages, comments, score, tier, score_breakdown, status, tags, raw_data,
			created_at, updated_at, last_scored_at, last_contacted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		lead.ID, lead.Source, lead.SourceID, lead.Name, lead.Email, lead.Phone,
		normalize.PhoneKey(lead.Phone), lead.Username, lead.ProfileURL, lead.Bio, lead.Notes,
		enc.messages, enc.comments, lead.Score, string(lead.Tier), enc.breakdown,
		string(lead.Status), enc.tags, enc.rawData,
		lead.CreatedAt, lead.UpdatedAt, nullTime(lead.LastScoredAt), nullTime(lead.LastContactedAt),
	)
	return eris.Wrapf(err, "postgres: insert lead %s", lead.ID)
}

func (s *PostgresStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	enc, err := encodeLead(lead)
	if err != nil {
		return eris.Wrap(err, "postgres: encode lead")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET name = $1, email = $2, phone = $3, phone_key = $4, username = $5, profile_url = $6,
			bio = $7, notes = $8, messages = $9, comments = $10, score = $11, tier = $12, score_breakdown = $13,
			status = $14, tags = $15, raw_data = $16, updated_at = $17, last_scored_at = $18, last_contacted_at = $19
		 WHERE id = $20`,
		lead.Name, lead.Email, lead.Phone, normalize.PhoneKey(lead.Phone), lead.Username, lead.ProfileURL,
		lead.Bio, lead.Notes, enc.messages, enc.comments, lead.Score, string(lead.Tier), enc.breakdown,
		string(lead.Status), enc.tags, enc.rawData,
		lead.UpdatedAt, nullTime(lead.LastScoredAt), nullTime(lead.LastContactedAt),
		lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", lead.ID)
	}
	return nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("lead not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return lead, nil
}

func (s *PostgresStore) FindBySourceID(ctx context.Context, source, sourceID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE source = $1 AND source_id = $2 LIMIT 1`,
		source, sourceID)
	return findOnePgx(row, "postgres: find by source id")
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE email = $1 AND email <> '' LIMIT 1`,
		email)
	return findOnePgx(row, "postgres: find by email")
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phoneKey string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone_key = $1 AND phone_key <> '' LIMIT 1`,
		phoneKey)
	return findOnePgx(row, "postgres: find by phone")
}

func (s *PostgresStore) FindByUsername(ctx context.Context, source, username string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE source = $1 AND username = $2 AND username <> '' LIMIT 1`,
		source, username)
	return findOnePgx(row, "postgres: find by username")
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.Tier != "" {
		query += ` AND tier = ` + arg(string(filter.Tier))
	}
	if filter.Source != "" {
		query += ` AND source = ` + arg(filter.Source)
	}
	if filter.MinScore != nil {
		query += ` AND score >= ` + arg(*filter.MinScore)
	}
	query += ` ORDER BY score DESC, updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()
	return collectLeadsPgx(rows, "postgres: list leads")
}

func (s *PostgresStore) SearchLeads(ctx context.Context, query string, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE name ILIKE $1 OR email ILIKE $1 OR username ILIKE $1 OR bio ILIKE $1 OR notes ILIKE $1
		 ORDER BY score DESC LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search leads")
	}
	defer rows.Close()
	return collectLeadsPgx(rows, "postgres: search leads")
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByTier:   map[model.Tier]int{},
		ByStatus: map[model.LeadStatus]int{},
		BySource: map[string]int{},
	}

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`).Scan(&stats.Total); err != nil {
		return nil, eris.Wrap(err, "postgres: count leads")
	}

	for _, group := range []struct {
		column string
		add    func(key string, n int)
	}{
		{"tier", func(k string, n int) { stats.ByTier[model.Tier(k)] = n }},
		{"status", func(k string, n int) { stats.ByStatus[model.LeadStatus(k)] = n }},
		{"source", func(k string, n int) { stats.BySource[k] = n }},
	} {
		rows, err := s.pool.Query(ctx,
			`SELECT `+group.column+`, COUNT(*) FROM leads GROUP BY `+group.column)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: stats by %s", group.column)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "postgres: scan stats by %s", group.column)
			}
			group.add(key, n)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, eris.Wrapf(err, "postgres: stats by %s iterate", group.column)
		}
		rows.Close()
	}
	return stats, nil
}

func (s *PostgresStore) AddInteraction(ctx context.Context, in *model.Interaction) error {
	metaJSON, err := marshalOrNull(in.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal interaction metadata")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO interactions (id, lead_id, type, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		in.ID, in.LeadID, string(in.Type), in.Content, metaJSON, in.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert interaction for lead %s", in.LeadID)
}

func (s *PostgresStore) ListInteractions(ctx context.Context, leadID string, limit int) ([]model.Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, type, content, metadata, created_at FROM interactions
		 WHERE lead_id = $1 ORDER BY created_at DESC LIMIT $2`,
		leadID, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list interactions for lead %s", leadID)
	}
	defer rows.Close()

	var out []model.Interaction
	for rows.Next() {
		var in model.Interaction
		var metaJSON []byte
		if err := rows.Scan(&in.ID, &in.LeadID, &in.Type, &in.Content, &metaJSON, &in.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan interaction")
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &in.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal interaction metadata")
			}
		}
		out = append(out, in)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list interactions iterate")
}

// placeholder returns the $n positional marker for the nth argument.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func findOnePgx(row scannable, msg string) (*model.Lead, error) {
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, msg)
	}
	return lead, nil
}

func collectLeadsPgx(rows pgx.Rows, msg string) ([]model.Lead, error) {
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
