package weekplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkovacev/runweek/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrPlanNotFound = errors.New("weekly plan not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert replaces the owner's whole week with the given plan, creating
// the plan row if the owner never had one. Returns the canonical plan
// as stored.
func (r *Repo) Upsert(ctx context.Context, ownerID string, plan WeeklyPlan) (_ *WeeklyPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weekplan.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", ownerID))

	dayValues := make([]any, 0, 8)
	dayValues = append(dayValues, ownerID)
	for _, key := range DayKeys {
		slot, err := plan.Day(key)
		if err != nil {
			return nil, err
		}
		slotValue, err := slotToDBValue(slot)
		if err != nil {
			return nil, fmt.Errorf("encode slot %s: %w", key, err)
		}
		dayValues = append(dayValues, slotValue)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO weekly_plan (user_id, mon, tue, wed, thu, fri, sat, sun)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id) DO UPDATE SET
				mon = EXCLUDED.mon, tue = EXCLUDED.tue, wed = EXCLUDED.wed,
				thu = EXCLUDED.thu, fri = EXCLUDED.fri,
				sat = EXCLUDED.sat, sun = EXCLUDED.sun;`,
		dayValues...,
	)
	if err != nil {
		return nil, err
	}

	plan.UserID = ownerID
	return &plan, nil
}

func (r *Repo) Get(ctx context.Context, ownerID string) (_ *WeeklyPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weekplan.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", ownerID))

	rows, err := r.db.Query(
		ctx,
		`SELECT mon, tue, wed, thu, fri, sat, sun
			FROM weekly_plan
			WHERE user_id = $1;`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlan(rows, ownerID)
}

// scanPlan reads the single plan row. A failed statement also shows up
// as zero rows on the first Next call, so the rows error has to be
// checked before concluding the plan does not exist.
func scanPlan(rows pgx.Rows, ownerID string) (*WeeklyPlan, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read weekly plan: %w", err)
		}
		return nil, ErrPlanNotFound
	}

	rawSlots := make([][]byte, 7)
	if err := rows.Scan(
		&rawSlots[0], &rawSlots[1], &rawSlots[2], &rawSlots[3],
		&rawSlots[4], &rawSlots[5], &rawSlots[6],
	); err != nil {
		return nil, err
	}

	plan := WeeklyPlan{UserID: ownerID}
	for i, key := range DayKeys {
		slot, err := slotFromDBValue(rawSlots[i])
		if err != nil {
			return nil, fmt.Errorf("decode slot %s: %w", key, err)
		}
		if err := plan.SetDay(key, slot); err != nil {
			return nil, err
		}
	}

	return &plan, nil
}

func (r *Repo) Delete(ctx context.Context, ownerID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.weekplan.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", ownerID))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM weekly_plan WHERE user_id = $1;`,
		ownerID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}

	return nil
}

// an unset slot is stored as SQL NULL, a set slot as a JSONB array
func slotToDBValue(slot Slot) (any, error) {
	if slot.Unset {
		return nil, nil
	}
	return json.Marshal(slot)
}

func slotFromDBValue(raw []byte) (Slot, error) {
	if raw == nil {
		return UnsetSlot(), nil
	}
	var slot Slot
	if err := json.Unmarshal(raw, &slot); err != nil {
		return Slot{}, err
	}
	return slot, nil
}
