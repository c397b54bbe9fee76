package weekplan

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkovacev/runweek/internal/auth"
	"github.com/mkovacev/runweek/internal/telemetry/metrics"
	"github.com/mkovacev/runweek/internal/telemetry/tracing"
	"github.com/mkovacev/runweek/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=weekplan

type planRepo interface {
	Upsert(ctx context.Context, ownerID string, plan WeeklyPlan) (*WeeklyPlan, error)
	Get(ctx context.Context, ownerID string) (*WeeklyPlan, error)
	Delete(ctx context.Context, ownerID string) error
}

type Handler struct {
	repo    planRepo
	metrics *metrics.Manager
}

func NewHandler(repo planRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	weekSubrouter := mainRouter.PathPrefix("/api/week").Subrouter()
	weekSubrouter.HandleFunc("/{userId}", handler.HandleUpsert).Methods("PUT", "OPTIONS").Name("upsert-week")
	weekSubrouter.HandleFunc("/{userId}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-week")
	weekSubrouter.HandleFunc("/{userId}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-week")
}

// guardOwner rejects the request unless the caller from the verified
// token is the owner named in the path. Runs before any repo access.
func (handler *Handler) guardOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	vars := mux.Vars(r)
	ownerID := vars["userId"]
	if ownerID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return "", false
	}

	callerID, ok := auth.CallerIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return "", false
	}
	if callerID != ownerID {
		http.Error(w, "access denied", http.StatusForbidden)
		return "", false
	}

	return ownerID, true
}

func (handler *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekplan.upsert")
	defer span.End()
	r = r.WithContext(ctx)

	ownerID, ok := handler.guardOwner(w, r)
	if !ok {
		return
	}

	var plan WeeklyPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("upsert week, unmarshal json params: %s", err)
		http.Error(w, "upsert week failed", http.StatusBadRequest)
		return
	}

	canonical, err := handler.repo.Upsert(ctx, ownerID, plan)
	if err != nil {
		log.Errorf("upsert week for %s: %s", ownerID, err)
		http.Error(w, "failed to save weekly plan", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterPlanWrites.Inc()

	handler.writePlan(w, canonical)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekplan.get")
	defer span.End()
	r = r.WithContext(ctx)

	ownerID, ok := handler.guardOwner(w, r)
	if !ok {
		return
	}

	plan, err := handler.repo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "weekly plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("get week for %s: %s", ownerID, err)
		http.Error(w, "failed to get weekly plan", http.StatusInternalServerError)
		return
	}

	handler.writePlan(w, plan)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weekplan.delete")
	defer span.End()
	r = r.WithContext(ctx)

	ownerID, ok := handler.guardOwner(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, ownerID); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "weekly plan not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete week for %s: %s", ownerID, err)
		http.Error(w, "failed to delete weekly plan", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterPlanDeletes.Inc()

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) writePlan(w http.ResponseWriter, plan *WeeklyPlan) {
	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("marshal weekly plan: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, planJson)
}
