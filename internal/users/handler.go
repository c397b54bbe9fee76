package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mkovacev/runweek/internal/auth"
	"github.com/mkovacev/runweek/internal/middleware"
	"github.com/mkovacev/runweek/internal/telemetry/metrics"
	"github.com/mkovacev/runweek/internal/telemetry/tracing"
	"github.com/mkovacev/runweek/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=users

type usersRepo interface {
	Create(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id, name, email string) error
	SetStravaCredentials(ctx context.Context, id, clientID, clientSecret string) error
}

type tokenService interface {
	IssueToken(userID string) (string, error)
	RevokeToken(ctx context.Context, token string) error
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type Handler struct {
	repo    usersRepo
	tokens  tokenService
	metrics *metrics.Manager
}

func NewHandler(
	repo usersRepo,
	tokens tokenService,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:    repo,
		tokens:  tokens,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginRateLimitAllowedPerMin int,
) {
	authSubrouter := mainRouter.PathPrefix("/api/auth").Subrouter()
	authSubrouter.HandleFunc("/register", handler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authSubrouter.HandleFunc("/login", handler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authSubrouter.HandleFunc("/logout", handler.HandleLogout).Methods("GET", "OPTIONS").Name("logout")

	// rate limit the auth endpoints to prevent credential stuffing
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", loginRateLimitAllowedPerMin, handler.metrics))

	usersSubrouter := mainRouter.PathPrefix("/api/users").Subrouter()
	usersSubrouter.HandleFunc("/me", handler.HandleGetMe).Methods("GET", "OPTIONS").Name("get-me")
	usersSubrouter.HandleFunc("/me", handler.HandleUpdateMe).Methods("PUT", "OPTIONS").Name("update-me")
	usersSubrouter.HandleFunc("/strava-login/{userId}", handler.HandleStravaLogin).Methods("PUT", "OPTIONS").Name("strava-login")
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	type registerRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var registerReq registerRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	if registerReq.Name == "" || registerReq.Email == "" || registerReq.Password == "" {
		http.Error(w, "error, name, email or password empty", http.StatusBadRequest)
		return
	}

	passwordHash, err := pkg.HashPassword(registerReq.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	user, err := handler.repo.Create(ctx, User{
		Name:         registerReq.Name,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, "error, user already exists", http.StatusBadRequest)
			return
		}
		log.Errorf("register, create user [%s]: %s", registerReq.Email, err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	token, err := handler.tokens.IssueToken(user.ID)
	if err != nil {
		log.Errorf("register, issue token for %s: %s", user.ID, err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterRegistrations.Inc()
	log.Tracef("new user registered: %s", user.ID)

	handler.writeAuthResponse(w, "user registered successfully", token, *user, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	type loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if loginReq.Email == "" || loginReq.Password == "" {
		http.Error(w, "error, email or password empty", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.GetByEmail(ctx, loginReq.Email)
	if err != nil {
		reqIp, _ := pkg.ReadUserIP(r)
		log.Tracef("[unknown email] failed login attempt from %s", reqIp)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}

	if !pkg.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		reqIp, _ := pkg.ReadUserIP(r)
		log.Tracef("[password] failed login attempt for user %s from %s", user.ID, reqIp)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}

	token, err := handler.tokens.IssueToken(user.ID)
	if err != nil {
		log.Errorf("login failed, issue token error: %s", err)
		http.Error(w, "issue token error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterLogins.Inc()
	log.Trace("new login success")

	handler.writeAuthResponse(w, "login successful", token, *user, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	authHeader := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := handler.tokens.RevokeToken(ctx, token); err != nil {
		log.Tracef("[failed logout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.getMe")
	defer span.End()

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := handler.repo.Get(ctx, callerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get user %s: %s", callerID, err)
		http.Error(w, "failed to get user", http.StatusInternalServerError)
		return
	}

	userJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("marshal user: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(fmt.Sprintf(`{"user": %s}`, userJson)))
}

func (handler *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.updateMe")
	defer span.End()

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	type updateRequest struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	var updateReq updateRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Tracef("update user, unmarshal json params: %s", err)
		http.Error(w, "update failed", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.Get(ctx, callerID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	// only overwrite the provided fields
	if updateReq.Name == "" {
		updateReq.Name = user.Name
	}
	if updateReq.Email == "" {
		updateReq.Email = user.Email
	}

	if err := handler.repo.UpdateProfile(ctx, callerID, updateReq.Name, updateReq.Email); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			http.Error(w, "error, email already taken", http.StatusBadRequest)
			return
		}
		log.Errorf("update user %s: %s", callerID, err)
		http.Error(w, "failed to update user", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated")
}

func (handler *Handler) HandleStravaLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.stravaLogin")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok || callerID != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	type stravaLoginRequest struct {
		StravaClientID     string `json:"stravaClientId"`
		StravaClientSecret string `json:"stravaClientSecret"`
	}

	var stravaReq stravaLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&stravaReq); err != nil {
		log.Tracef("strava login, unmarshal json params: %s", err)
		http.Error(w, "strava login failed", http.StatusBadRequest)
		return
	}

	if stravaReq.StravaClientID == "" || stravaReq.StravaClientSecret == "" {
		http.Error(w, "error, strava client id or secret empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.SetStravaCredentials(
		ctx, userID, stravaReq.StravaClientID, stravaReq.StravaClientSecret,
	); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("set strava credentials for %s: %s", userID, err)
		http.Error(w, "failed to update strava login", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, `{"message": "strava login updated successfully"}`)
}

func (handler *Handler) writeAuthResponse(
	w http.ResponseWriter,
	message, token string,
	user User,
	statusCode int,
) {
	respJson, err := json.Marshal(AuthResponse{
		Message: message,
		Token:   token,
		User:    user,
	})
	if err != nil {
		log.Errorf("marshal auth response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, statusCode)
}
