package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/chat"
	"github.com/sovushik/SparkyFitness/services"
)

type ChatRepo struct {
	db *pgxpool.Pool
}

var _ services.ChatRepository = (*ChatRepo)(nil)

func NewChatRepo(db *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{db: db}
}

const providerColumns = `id, user_id, service_name, service_type, api_key_encrypted, base_url, model, is_active, created_at, updated_at`

func scanProvider(row pgx.Row) (*chat.Provider, error) {
	p := &chat.Provider{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ServiceName,
		&p.ServiceType,
		&p.APIKeyEncrypted,
		&p.BaseURL,
		&p.Model,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ChatRepo) CreateProvider(ctx context.Context, p *chat.Provider) error {
	query := `
	INSERT INTO ai_service_settings (user_id, service_name, service_type, api_key_encrypted, base_url, model, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		p.UserID,
		p.ServiceName,
		p.ServiceType,
		p.APIKeyEncrypted,
		p.BaseURL,
		p.Model,
		p.IsActive,
	).Scan(
		&p.ID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "creating ai provider")
	}

	return nil
}

func (r *ChatRepo) ListProviders(ctx context.Context, userID uuid.UUID) ([]*chat.Provider, error) {
	query := `
	SELECT ` + providerColumns + `
	FROM ai_service_settings
	WHERE user_id = $1
	ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, errors.Annotate(err, "listing ai providers")
	}
	defer rows.Close()

	var providers []*chat.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, errors.Annotate(err, "scanning ai provider")
		}
		providers = append(providers, p)
	}

	return providers, rows.Err()
}

func (r *ChatRepo) GetProvider(ctx context.Context, id uuid.UUID) (*chat.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM ai_service_settings WHERE id = $1`

	p, err := scanProvider(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("ai provider")
		}
		return nil, errors.Annotate(err, "getting ai provider")
	}

	return p, nil
}

func (r *ChatRepo) GetProviderOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM ai_service_settings WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errors.NotFoundf("ai provider")
		}
		return uuid.Nil, errors.Annotate(err, "getting ai provider owner")
	}
	return owner, nil
}

func (r *ChatRepo) UpdateProvider(ctx context.Context, p *chat.Provider) error {
	query := `
	UPDATE ai_service_settings
	SET service_name = $2, service_type = $3, api_key_encrypted = $4, base_url = $5, model = $6, updated_at = now()
	WHERE id = $1
	`

	result, err := r.db.Exec(
		ctx,
		query,
		p.ID,
		p.ServiceName,
		p.ServiceType,
		p.APIKeyEncrypted,
		p.BaseURL,
		p.Model,
	)

	if err != nil {
		return errors.Annotate(err, "updating ai provider")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("ai provider")
	}

	return nil
}

func (r *ChatRepo) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM ai_service_settings WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting ai provider")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("ai provider")
	}
	return nil
}

// ActivateProvider flips the chosen provider active and the user's others
// inactive inside a transaction.
func (r *ChatRepo) ActivateProvider(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Annotate(err, "beginning activate tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE ai_service_settings SET is_active = false, updated_at = now() WHERE user_id = $1 AND is_active = true`,
		userID); err != nil {
		return errors.Annotate(err, "deactivating ai providers")
	}

	result, err := tx.Exec(ctx,
		`UPDATE ai_service_settings SET is_active = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "activating ai provider")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("ai provider")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Annotate(err, "committing activate tx")
	}

	return nil
}

func (r *ChatRepo) GetActiveProvider(ctx context.Context, userID uuid.UUID) (*chat.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM ai_service_settings WHERE user_id = $1 AND is_active = true`

	p, err := scanProvider(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("active ai provider")
		}
		return nil, errors.Annotate(err, "getting active ai provider")
	}

	return p, nil
}

func (r *ChatRepo) InsertMessage(ctx context.Context, m *chat.Message) error {
	query := `
	INSERT INTO chat_messages (user_id, role, content)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, m.UserID, m.Role, m.Content).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return errors.Annotate(err, "inserting chat message")
	}

	return nil
}

// RecentMessages returns the newest limit messages in chronological order.
func (r *ChatRepo) RecentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]*chat.Message, error) {
	query := `
	SELECT id, user_id, role, content, created_at
	FROM chat_messages
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Annotate(err, "listing chat messages")
	}
	defer rows.Close()

	var messages []*chat.Message
	for rows.Next() {
		m := &chat.Message{}
		err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Role,
			&m.Content,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, errors.Annotate(err, "scanning chat message")
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Trace(err)
	}

	// Query ordered newest-first for the LIMIT; callers want oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *ChatRepo) ClearMessages(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID); err != nil {
		return errors.Annotate(err, "clearing chat messages")
	}
	return nil
}

// ApplyRetention deletes chat messages that fell out of each user's
// auto_clear_history window. 'all' wipes on every pass.
func (r *ChatRepo) ApplyRetention(ctx context.Context) (int64, error) {
	query := `
	DELETE FROM chat_messages cm
	USING user_preferences up
	WHERE up.user_id = cm.user_id
	  AND (
		(up.auto_clear_history = '7days' AND cm.created_at < now() - interval '7 days') OR
		(up.auto_clear_history = '30days' AND cm.created_at < now() - interval '30 days') OR
		up.auto_clear_history = 'all'
	  )
	`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, errors.Annotate(err, "applying chat retention")
	}

	return result.RowsAffected(), nil
}
