package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/crypto"
	"github.com/ekaya-inc/ekaya-bi/pkg/database"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
)

// connectionRepository implements ConnectionStore on the metadata database.
// Connection strings are encrypted before they leave the process.
type connectionRepository struct {
	db        *database.DB
	encryptor *crypto.ConnectionEncryptor
}

func NewConnectionRepository(db *database.DB, encryptor *crypto.ConnectionEncryptor) ConnectionStore {
	return &connectionRepository{db: db, encryptor: encryptor}
}

const connectionColumns = `id, name, provider, connection_string, created_at, updated_at`

func (r *connectionRepository) Get(ctx context.Context, id string) (*models.ConnectionDefinition, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM bi_connections
		WHERE id = $1`, id)

	def, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return def, nil
}

func (r *connectionRepository) GetAll(ctx context.Context) ([]models.ConnectionDefinition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+connectionColumns+`
		FROM bi_connections
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	defs := []models.ConnectionDefinition{}
	for rows.Next() {
		def, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}
	return defs, nil
}

func (r *connectionRepository) Upsert(ctx context.Context, def *models.ConnectionDefinition) error {
	if def == nil || def.ID == "" {
		return apperrors.InvalidInput("Connection id is required.")
	}

	sealed, err := r.encryptor.Encrypt(def.ConnectionString)
	if err != nil {
		return fmt.Errorf("failed to encrypt connection string: %w", err)
	}

	now := time.Now().UTC()
	err = r.db.QueryRow(ctx, `
		INSERT INTO bi_connections (id, name, provider, connection_string, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			provider = EXCLUDED.provider,
			connection_string = EXCLUDED.connection_string,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`,
		def.ID, def.Name, int(def.Provider), sealed, now,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert connection: %w", err)
	}
	return nil
}

func (r *connectionRepository) scan(row pgx.Row) (*models.ConnectionDefinition, error) {
	var def models.ConnectionDefinition
	var provider int16
	var sealed string
	if err := row.Scan(&def.ID, &def.Name, &provider, &sealed, &def.CreatedAt, &def.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan connection: %w", err)
	}
	def.Provider = models.Provider(provider)

	plain, err := r.encryptor.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: connection %s: %v", apperrors.ErrCredentialsKeyMismatch, def.ID, err)
	}
	def.ConnectionString = plain
	return &def, nil
}

var _ ConnectionStore = (*connectionRepository)(nil)
