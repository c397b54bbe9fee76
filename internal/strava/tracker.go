package strava

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mkovacev/runweek/internal/auth"
	"github.com/mkovacev/runweek/internal/telemetry/tracing"
	"github.com/mkovacev/runweek/internal/users"
	"github.com/mkovacev/runweek/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://www.strava.com/oauth/authorize"
	tokenURL = "https://www.strava.com/oauth/token"
	apiURL   = "https://www.strava.com/api/v3"
)

// https://developers.strava.com/docs/authentication/

//go:generate mockgen -source=$GOFILE -destination=tracker_mocks_test.go -package=strava

type credentialsRepo interface {
	Get(ctx context.Context, id string) (*users.User, error)
}

// Tracker runs the OAuth dance against Strava and proxies a couple of
// read-only athlete endpoints. Every user brings their own Strava API
// application, so tokens are exchanged with the client id and secret
// stored on the user row and authenticated clients are kept per user.
type Tracker struct {
	repo               credentialsRepo
	redirectURI        string
	randStateGenerator func() string

	authBaseURL  string
	tokenBaseURL string
	apiBaseURL   string

	mu       sync.Mutex
	pending  map[string]pendingAuth  // state -> who started the dance
	sessions map[string]*http.Client // user id -> authenticated client
}

type pendingAuth struct {
	userID    string
	oauthConf *oauth2.Config
}

func NewTracker(
	redirectURI string,
	repo credentialsRepo,
	randStateGenerator func() string,
) *Tracker {
	return &Tracker{
		repo:               repo,
		redirectURI:        redirectURI,
		randStateGenerator: randStateGenerator,
		authBaseURL:        authURL,
		tokenBaseURL:       tokenURL,
		apiBaseURL:         apiURL,
		pending:            map[string]pendingAuth{},
		sessions:           map[string]*http.Client{},
	}
}

func GenerateStateString() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

func (t *Tracker) SetupRoutes(mainRouter *mux.Router) {
	stravaSubrouter := mainRouter.PathPrefix("/api/strava").Subrouter()
	stravaSubrouter.HandleFunc("/login", t.Authenticate).Methods("GET", "OPTIONS").Name("strava-login")
	stravaSubrouter.HandleFunc("/callback", t.AuthRedirect).Methods("GET", "OPTIONS").Name("strava-callback")
	stravaSubrouter.HandleFunc("/athlete", t.GetAthlete).Methods("GET", "OPTIONS").Name("strava-athlete")
	stravaSubrouter.HandleFunc("/activities", t.GetRecentActivities).Methods("GET", "OPTIONS").Name("strava-activities")
}

func (t *Tracker) oauthConfFor(user *users.User) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     user.StravaClientID,
		ClientSecret: user.StravaClientSecret,
		RedirectURL:  t.redirectURI,
		Scopes:       []string{"read,activity:read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  t.authBaseURL,
			TokenURL: t.tokenBaseURL,
		},
	}
}

func (t *Tracker) Authenticate(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "strava.tracker.authenticate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := t.repo.Get(ctx, callerID)
	if err != nil {
		log.Errorf("strava auth, get user %s: %s", callerID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if user.StravaClientID == "" || user.StravaClientSecret == "" {
		http.Error(w, "strava credentials not set", http.StatusBadRequest)
		return
	}

	oauthConf := t.oauthConfFor(user)
	state := t.randStateGenerator()

	t.mu.Lock()
	t.pending[state] = pendingAuth{userID: callerID, oauthConf: oauthConf}
	t.mu.Unlock()

	http.Redirect(w, r, oauthConf.AuthCodeURL(state), http.StatusFound)
}

func (t *Tracker) AuthRedirect(w http.ResponseWriter, r *http.Request) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "strava.tracker.authRedirect")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	state := r.FormValue("state")
	t.mu.Lock()
	started, ok := t.pending[state]
	delete(t.pending, state)
	t.mu.Unlock()
	if !ok {
		http.Error(w, "state mismatch", http.StatusForbidden)
		log.Errorf("strava auth, unknown state: %s", state)
		return
	}

	tok, err := started.oauthConf.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		http.Error(w, "failed to get token", http.StatusForbidden)
		log.Errorf("strava auth, failed to get token: %v", err)
		return
	}

	client := started.oauthConf.Client(context.WithoutCancel(ctx), tok)
	client.Timeout = 10 * time.Second

	t.mu.Lock()
	t.sessions[started.userID] = client
	t.mu.Unlock()

	// back to the main page
	http.Redirect(w, r, "/", http.StatusFound)
}

func (t *Tracker) GetAthlete(w http.ResponseWriter, r *http.Request) {
	t.proxyGet(w, r, "strava.tracker.getAthlete", "/athlete")
}

func (t *Tracker) GetRecentActivities(w http.ResponseWriter, r *http.Request) {
	t.proxyGet(w, r, "strava.tracker.getRecentActivities", "/athlete/activities?per_page=30")
}

func (t *Tracker) proxyGet(w http.ResponseWriter, r *http.Request, spanName, path string) {
	var err error
	ctx, span := tracing.GlobalTracer.Start(r.Context(), spanName)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	callerID, ok := auth.CallerIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	t.mu.Lock()
	client := t.sessions[callerID]
	t.mu.Unlock()
	if client == nil {
		log.Debugf("no strava session for user %s, redirecting to authenticate", callerID)
		t.Authenticate(w, r.WithContext(ctx))
		return
	}

	req, err := http.NewRequestWithContext(ctx, "GET", t.apiBaseURL+path, nil)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Errorf("strava get %s: %s", path, err)
		http.Error(w, "failed to reach strava", http.StatusBadGateway)
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "failed to read strava response", http.StatusBadGateway)
		return
	}

	if resp.StatusCode >= 400 {
		err = fmt.Errorf("strava responded with %d", resp.StatusCode)
		log.Errorf("strava get %s: %s", path, err)
		http.Error(w, "strava request failed", http.StatusBadGateway)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBody)
}
