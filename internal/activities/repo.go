package activities

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mkovacev/runweek/internal/telemetry/tracing"
	"github.com/mkovacev/runweek/pkg"

	"github.com/coocood/freecache"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrUnknownUser      = errors.New("unknown user")
)

const (
	// 512 KB is plenty for cached activity lists
	cacheSizeBytes  = 512 * 1024
	cacheExpireSecs = 5 * 60
	cacheKeyPrefix  = "activities::"
)

type Repo struct {
	db    *pgxpool.Pool
	cache *freecache.Cache
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db:    db,
		cache: freecache.NewCache(cacheSizeBytes),
	}
}

func (r *Repo) Add(ctx context.Context, activity Activity) (_ *Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO activity (user_id, name, date, description, distance, duration, tempo, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;`,
		activity.UserID, activity.Name, activity.Date, activity.Description,
		activity.Distance, activity.Duration, activity.Tempo, activity.CreatedAt,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, errors.New("unexpected error, failed to insert activity")
	}
	if err := rows.Scan(&activity.ID); err != nil {
		return nil, err
	}

	r.cache.Del(ownerCacheKey(activity.UserID))

	span.SetAttributes(attribute.Int("activity.id", activity.ID))
	return &activity, nil
}

// ListForUser returns the user's activities, oldest first.
func (r *Repo) ListForUser(ctx context.Context, userID string) (_ []Activity, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	if cached, cacheErr := r.cache.Get(ownerCacheKey(userID)); cacheErr == nil {
		var activities []Activity
		if err := json.Unmarshal(cached, &activities); err != nil {
			log.Errorf("unmarshal cached activities for %s: %s", userID, err)
		} else {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return activities, nil
		}
	}

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, name, date, COALESCE(description, ''), distance, duration, COALESCE(tempo, ''), created_at
			FROM activity
			WHERE user_id = $1
			ORDER BY id;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	activities := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Name, &a.Date, &a.Description,
			&a.Distance, &a.Duration, &a.Tempo, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}

	if activitiesJson, err := json.Marshal(activities); err == nil {
		if err := r.cache.Set(ownerCacheKey(userID), activitiesJson, cacheExpireSecs); err != nil {
			log.Errorf("cache activities for %s: %s", userID, err)
		}
	}

	return activities, nil
}

func (r *Repo) Delete(ctx context.Context, userID string, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.activities.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("activity.id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM activity WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrActivityNotFound
	}

	r.cache.Del(ownerCacheKey(userID))
	return nil
}

func ownerCacheKey(userID string) []byte {
	return []byte(cacheKeyPrefix + userID)
}
