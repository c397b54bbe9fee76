package activities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mkovacev/runweek/internal/auth"
	"github.com/mkovacev/runweek/internal/telemetry/metrics"
	"github.com/mkovacev/runweek/internal/telemetry/tracing"
	"github.com/mkovacev/runweek/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=activities

type activitiesRepo interface {
	Add(ctx context.Context, activity Activity) (*Activity, error)
	ListForUser(ctx context.Context, userID string) ([]Activity, error)
	Delete(ctx context.Context, userID string, id int) error
}

type Handler struct {
	repo    activitiesRepo
	metrics *metrics.Manager
}

func NewHandler(repo activitiesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	activitiesSubrouter := mainRouter.PathPrefix("/api/activity").Subrouter()
	activitiesSubrouter.HandleFunc("", handler.HandleAdd).Methods("POST", "OPTIONS").Name("add-activity")
	activitiesSubrouter.HandleFunc("/{userId}", handler.HandleList).Methods("GET", "OPTIONS").Name("list-activities")
	activitiesSubrouter.HandleFunc("/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-activity")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.add")
	defer span.End()

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var activity Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		log.Tracef("add activity, unmarshal json params: %s", err)
		http.Error(w, "add activity failed", http.StatusBadRequest)
		return
	}

	if activity.Name == "" || activity.Date == "" || activity.Duration == "" || activity.Distance <= 0 {
		http.Error(w, "error, activity name, date, duration or distance missing", http.StatusBadRequest)
		return
	}

	// the caller owns whatever they log, ignore any user id from the body
	activity.UserID = callerID

	added, err := handler.repo.Add(ctx, activity)
	if err != nil {
		if errors.Is(err, ErrUnknownUser) {
			http.Error(w, "unknown user", http.StatusBadRequest)
			return
		}
		log.Errorf("add activity for %s: %s", callerID, err)
		http.Error(w, "add activity failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterActivities.Inc()

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added activity: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.list")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if callerID != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	activities, err := handler.repo.ListForUser(ctx, userID)
	if err != nil {
		log.Errorf("list activities for %s: %s", userID, err)
		http.Error(w, "failed to get activities", http.StatusInternalServerError)
		return
	}

	activitiesJson, err := json.Marshal(activities)
	if err != nil {
		log.Errorf("marshal activities: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, activitiesJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.delete")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "error, invalid activity id", http.StatusBadRequest)
		return
	}

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	// delete is scoped to the caller's own activities
	if err := handler.repo.Delete(ctx, callerID, id); err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			http.Error(w, "activity not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete activity %d for %s: %s", id, callerID, err)
		http.Error(w, "delete activity failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}
