package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// PostgresStore keeps states as jsonb rows keyed by sync id
type PostgresStore struct {
	client *sqlx.DB
	table  string
}

func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	if table == "" {
		table = constants.DefaultStateTable
	}

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, utils.StateError.Wrap(err, "failed to open state database")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	// force a connection and test that it worked
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, utils.StateError.Wrap(err, "failed to ping state database")
	}

	store := &PostgresStore{client: db, table: pq.QuoteIdentifier(table)}
	if _, err := db.ExecContext(ctx, store.createTableQuery()); err != nil {
		_ = db.Close()
		return nil, utils.StateError.Wrap(err, "failed to create state table[%s]", table)
	}

	logger.Infof("using postgres state table[%s]", table)
	return store, nil
}

func (p *PostgresStore) createTableQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		sync_id TEXT PRIMARY KEY,
		state JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, p.table)
}

func (p *PostgresStore) Load(ctx context.Context, syncID string) (*types.State, error) {
	var raw []byte
	err := p.client.GetContext(ctx, &raw, fmt.Sprintf("SELECT state FROM %s WHERE sync_id = $1", p.table), syncID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.StateError.Wrap(err, "failed to load state of sync[%s]", syncID)
	}

	state := &types.State{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, utils.StateError.Wrap(err, "failed to decode state of sync[%s]", syncID)
	}

	return state, nil
}

func (p *PostgresStore) Save(ctx context.Context, syncID string, state *types.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return utils.StateError.Wrap(err, "failed to encode state of sync[%s]", syncID)
	}

	query := fmt.Sprintf(`INSERT INTO %s (sync_id, state, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (sync_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`, p.table)
	if _, err := p.client.ExecContext(ctx, query, syncID, string(raw)); err != nil {
		return utils.StateError.Wrap(err, "failed to save state of sync[%s]", syncID)
	}

	return nil
}

func (p *PostgresStore) Close() error {
	return p.client.Close()
}
