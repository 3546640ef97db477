package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/user"
	"github.com/sovushik/SparkyFitness/services"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type UserRepo struct {
	db *pgxpool.Pool
}

var _ services.UserRepository = (*UserRepo)(nil)

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (email, password_hash, full_name, role)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		u.Email,
		u.PasswordHash,
		u.FullName,
		u.Role,
	).Scan(
		&u.ID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return errors.AlreadyExistsf("user %s", u.Email)
		}
		return errors.Annotate(err, "creating user")
	}

	return nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
	SELECT id, email, password_hash, full_name, role, created_at, updated_at
	FROM users
	WHERE email = $1
	`

	u := &user.User{}
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("user %s", email)
		}
		return nil, errors.Annotate(err, "getting user by email")
	}

	return u, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
	SELECT id, email, password_hash, full_name, role, created_at, updated_at
	FROM users
	WHERE id = $1
	`

	u := &user.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("user")
		}
		return nil, errors.Annotate(err, "getting user")
	}

	return u, nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, u *user.User) error {
	query := `
	UPDATE users
	SET email = $2, full_name = $3, updated_at = now()
	WHERE id = $1
	RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query, u.ID, u.Email, u.FullName).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errors.NotFoundf("user")
		}
		if isUniqueViolation(err) {
			return errors.AlreadyExistsf("user %s", u.Email)
		}
		return errors.Annotate(err, "updating user")
	}

	return nil
}

func (r *UserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting user")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("user")
	}
	return nil
}

// PromoteToAdmin flips the role of the user with the given email. Returns
// false when no such user exists yet, which is normal before first signup.
func (r *UserRepo) PromoteToAdmin(ctx context.Context, email string) (bool, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = now() WHERE email = $2 AND role <> $1`,
		user.RoleAdmin, email)
	if err != nil {
		return false, errors.Annotate(err, "promoting admin")
	}
	return result.RowsAffected() > 0, nil
}

func (r *UserRepo) GetPreferences(ctx context.Context, userID uuid.UUID) (*user.Preferences, error) {
	query := `
	SELECT user_id, date_format, default_weight_unit, default_measurement_unit, timezone, auto_clear_history, system_prompt, updated_at
	FROM user_preferences
	WHERE user_id = $1
	`

	p := &user.Preferences{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.DateFormat,
		&p.DefaultWeightUnit,
		&p.DefaultMeasurementUnit,
		&p.Timezone,
		&p.AutoClearHistory,
		&p.SystemPrompt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("preferences")
		}
		return nil, errors.Annotate(err, "getting preferences")
	}

	return p, nil
}

func (r *UserRepo) UpsertPreferences(ctx context.Context, p *user.Preferences) error {
	query := `
	INSERT INTO user_preferences (user_id, date_format, default_weight_unit, default_measurement_unit, timezone, auto_clear_history, system_prompt, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (user_id)
	DO UPDATE SET
		date_format = $2,
		default_weight_unit = $3,
		default_measurement_unit = $4,
		timezone = $5,
		auto_clear_history = $6,
		system_prompt = $7,
		updated_at = now()
	RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		p.UserID,
		p.DateFormat,
		p.DefaultWeightUnit,
		p.DefaultMeasurementUnit,
		p.Timezone,
		p.AutoClearHistory,
		p.SystemPrompt,
	).Scan(&p.UpdatedAt)

	if err != nil {
		return errors.Annotate(err, "saving preferences")
	}

	return nil
}
