package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkovacev/runweek/internal/telemetry/tracing"
	"github.com/mkovacev/runweek/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if user.Name == "" || user.Email == "" || user.PasswordHash == "" {
		return nil, errors.New("user name, email or password hash empty")
	}

	user.ID = uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO app_user (id, name, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5);`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	return r.getByColumn(ctx, "id", id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getByColumn(ctx, "email", email)
}

func (r *Repo) getByColumn(ctx context.Context, column, value string) (*User, error) {
	rows, err := r.db.Query(
		ctx,
		fmt.Sprintf(`
			SELECT
				id, name, email, password_hash, created_at,
				COALESCE(strava_client_id, ''), COALESCE(strava_client_secret, '')
			FROM app_user
			WHERE %s = $1;`, column),
		value,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUser(rows)
}

// scanUser reads the single user row. A failed statement also shows up
// as zero rows on the first Next call, so the rows error has to be
// checked before concluding the user does not exist.
func scanUser(rows pgx.Rows) (*User, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read user: %w", err)
		}
		return nil, ErrUserNotFound
	}

	var user User
	if err := rows.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt,
		&user.StravaClientID, &user.StravaClientSecret,
	); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *Repo) UpdateProfile(ctx context.Context, id, name, email string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.updateProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE app_user SET name = $1, email = $2 WHERE id = $3;`,
		name, email, id,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *Repo) SetStravaCredentials(ctx context.Context, id, clientID, clientSecret string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.setStravaCredentials")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", id))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE app_user SET strava_client_id = $1, strava_client_secret = $2 WHERE id = $3;`,
		clientID, clientSecret, id,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
