package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/models"
	"github.com/stratoslabs/dircore/pkg/logger"
)

const uniqueViolationCode = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS principals (
    id         SERIAL PRIMARY KEY,
    type       TEXT NOT NULL,
    name       TEXT NOT NULL,
    parent_id  INTEGER REFERENCES principals(id),
    fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS principals_type_name_idx
    ON principals (type, lower(name));
`

// PostgresStore persists principals in PostgreSQL. Identifier assignment and
// name uniqueness are enforced by the database (serial ids, unique index on
// type + lower(name)); the orchestrator never pre-checks for duplicates.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresStore(ctx context.Context, databaseURL string, log logger.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresStore{pool: pool, logger: log}, nil
}

// EnsureSchema creates the principals table and indexes when absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure principals schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePrincipal(ctx context.Context, p models.Principal, parentID *uint32, permissions auth.PermissionSet) (CreationResult, error) {
	if err := checkCreatePermission(p.Type, permissions); err != nil {
		return CreationResult{}, err
	}

	stored, err := hashSecrets(p)
	if err != nil {
		return CreationResult{}, err
	}

	fields, err := json.Marshal(stored.Fields)
	if err != nil {
		return CreationResult{}, fmt.Errorf("marshal principal fields: %w", err)
	}

	var parent *int64
	if parentID != nil {
		v := int64(*parentID)
		parent = &v
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO principals (type, name, parent_id, fields)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		string(stored.Type), stored.Name(), parent, fields,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return CreationResult{}, fmt.Errorf("%w: %s %q", ErrAlreadyExists, stored.Type, stored.Name())
		}
		return CreationResult{}, fmt.Errorf("create principal: %w", err)
	}

	changed := []uint32{uint32(id)}
	if parentID != nil {
		changed = append(changed, *parentID)
	}
	return CreationResult{ID: uint32(id), ChangedPrincipals: changed}, nil
}

func (s *PostgresStore) GetPrincipal(ctx context.Context, id uint32) (*StoredPrincipal, error) {
	var (
		typ    string
		parent *int64
		fields []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT type, parent_id, fields FROM principals WHERE id = $1`,
		int64(id),
	).Scan(&typ, &parent, &fields)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get principal %d: %w", id, err)
	}

	p := models.NewPrincipal(models.PrincipalType(typ))
	if err := json.Unmarshal(fields, &p.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal principal %d fields: %w", id, err)
	}

	out := &StoredPrincipal{ID: id, Principal: p}
	if parent != nil {
		v := uint32(*parent)
		out.ParentID = &v
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
