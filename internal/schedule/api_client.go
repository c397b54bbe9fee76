package schedule

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mkovacev/runweek/internal/activities"
	"github.com/mkovacev/runweek/internal/weekplan"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// errNotFound is what do returns for any 404, callers translate it
// per endpoint. Only a missing plan has a domain meaning.
var errNotFound = errors.New("not found")

// APIClient talks to the backend's activity and weekly plan endpoints
// on behalf of one authenticated user.
type APIClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewAPIClient(baseURL, authToken string) *APIClient {
	return &APIClient{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
	}
}

func (c *APIClient) ListActivities(ctx context.Context, userID string) ([]activities.Activity, error) {
	respBody, err := c.do(ctx, "GET", fmt.Sprintf("%s/api/activity/%s", c.baseURL, userID), nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("activities for user %s: %w", userID, err)
		}
		return nil, err
	}

	var userActivities []activities.Activity
	if err := json.Unmarshal(respBody, &userActivities); err != nil {
		return nil, fmt.Errorf("unmarshal activities: %w", err)
	}
	return userActivities, nil
}

func (c *APIClient) GetPlan(ctx context.Context, userID string) (*weekplan.WeeklyPlan, error) {
	respBody, err := c.do(ctx, "GET", fmt.Sprintf("%s/api/week/%s", c.baseURL, userID), nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, weekplan.ErrPlanNotFound
		}
		return nil, err
	}

	var plan weekplan.WeeklyPlan
	if err := json.Unmarshal(respBody, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal weekly plan: %w", err)
	}
	return &plan, nil
}

func (c *APIClient) UpsertPlan(
	ctx context.Context,
	userID string,
	plan weekplan.WeeklyPlan,
) (*weekplan.WeeklyPlan, error) {
	planJson, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal weekly plan: %w", err)
	}

	respBody, err := c.do(ctx, "PUT", fmt.Sprintf("%s/api/week/%s", c.baseURL, userID), planJson)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, weekplan.ErrPlanNotFound
		}
		return nil, err
	}

	var canonical weekplan.WeeklyPlan
	if err := json.Unmarshal(respBody, &canonical); err != nil {
		return nil, fmt.Errorf("unmarshal weekly plan: %w", err)
	}
	return &canonical, nil
}

func (c *APIClient) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)
	}

	return respBody, nil
}
