package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mkovacev/runweek/internal/activities"
	"github.com/mkovacev/runweek/internal/weekplan"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=controller_mocks_test.go -package=schedule

const DefaultDebounce = 500 * time.Millisecond

var ErrControllerClosed = errors.New("schedule controller closed")

type planAPI interface {
	ListActivities(ctx context.Context, userID string) ([]activities.Activity, error)
	GetPlan(ctx context.Context, userID string) (*weekplan.WeeklyPlan, error)
	UpsertPlan(ctx context.Context, userID string, plan weekplan.WeeklyPlan) (*weekplan.WeeklyPlan, error)
}

// Controller keeps the in-memory view a user edits via drag and drop:
// at most one activity per day. Edits apply locally right away, the
// server push is debounced so a burst of edits lands as one write
// carrying only the final state. Pushes are optimistic, a failed push
// keeps the local view and surfaces the error via LastSyncErr.
type Controller struct {
	api      planAPI
	userID   string
	debounce time.Duration

	mu       sync.Mutex
	pool     []activities.Activity
	assigned map[string]*activities.Activity
	timer    *time.Timer
	pending  sync.WaitGroup
	syncErr  error
	closed   bool
}

func NewController(api planAPI, userID string, debounce time.Duration) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{
		api:      api,
		userID:   userID,
		debounce: debounce,
		assigned: make(map[string]*activities.Activity, len(weekplan.DayKeys)),
	}
}

// Load fetches the user's activities and their stored plan, then
// collapses each day to its first activity for editing. A missing
// plan is not an error, the week just starts out blank.
func (c *Controller) Load(ctx context.Context) error {
	userActivities, err := c.api.ListActivities(ctx, c.userID)
	if err != nil {
		return err
	}

	assigned := make(map[string]*activities.Activity, len(weekplan.DayKeys))

	plan, err := c.api.GetPlan(ctx, c.userID)
	if err != nil && !errors.Is(err, weekplan.ErrPlanNotFound) {
		return err
	}
	if plan != nil {
		for _, day := range weekplan.DayKeys {
			slot, err := plan.Day(day)
			if err != nil {
				return err
			}
			if slot.IsEmpty() {
				continue
			}
			first := slot.Items[0]
			assigned[day] = &first
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = userActivities
	c.assigned = assigned
	return nil
}

// Assign places the named activity on the given day. An activity
// occupies at most one day, assigning it again moves it. Unknown
// activity names and unknown day keys are no-ops.
func (c *Controller) Assign(day, activityName string) {
	if !validDayKey(day) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	activity := c.findActivity(activityName)
	if activity == nil {
		return
	}

	c.clearActivityLocked(activityName)
	c.assigned[day] = activity
	c.scheduleSyncLocked()
}

// Unassign clears the named activity from whatever day holds it.
func (c *Controller) Unassign(activityName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.clearActivityLocked(activityName) {
		return
	}
	c.scheduleSyncLocked()
}

// AssignedTo returns the activity on the given day, or nil.
func (c *Controller) AssignedTo(day string) *activities.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()

	activity := c.assigned[day]
	if activity == nil {
		return nil
	}
	copied := *activity
	return &copied
}

// AvailablePool returns the loaded activities not assigned to any day,
// in their original order.
func (c *Controller) AvailablePool() []activities.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()

	assignedNames := make(map[string]struct{}, len(c.assigned))
	for _, activity := range c.assigned {
		assignedNames[activity.Name] = struct{}{}
	}

	available := make([]activities.Activity, 0, len(c.pool))
	for _, activity := range c.pool {
		if _, taken := assignedNames[activity.Name]; taken {
			continue
		}
		available = append(available, activity)
	}
	return available
}

// Flush cancels any pending debounce and pushes the current view now.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	c.stopTimerLocked()
	c.mu.Unlock()

	c.push(ctx)
	return c.LastSyncErr()
}

// LastSyncErr returns the error of the most recent push, nil after a
// successful one.
func (c *Controller) LastSyncErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncErr
}

// Close cancels any pending push and waits for an in-flight one.
// Local edits made after Close are lost.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.pending.Wait()
}

func (c *Controller) findActivity(name string) *activities.Activity {
	for i := range c.pool {
		if c.pool[i].Name == name {
			copied := c.pool[i]
			return &copied
		}
	}
	return nil
}

func (c *Controller) clearActivityLocked(name string) bool {
	for day, activity := range c.assigned {
		if activity.Name == name {
			delete(c.assigned, day)
			return true
		}
	}
	return false
}

// scheduleSyncLocked restarts the debounce window. Only the last
// mutation within the window schedules the push that actually runs.
func (c *Controller) scheduleSyncLocked() {
	if c.closed {
		return
	}

	c.stopTimerLocked()
	c.pending.Add(1)
	c.timer = time.AfterFunc(c.debounce, func() {
		defer c.pending.Done()
		c.push(context.Background())
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer == nil {
		return
	}
	if c.timer.Stop() {
		c.pending.Done()
	}
	c.timer = nil
}

// push snapshots the view at fire time, so edits made between
// scheduling and firing are always included.
func (c *Controller) push(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	snapshot := c.weekSnapshotLocked()
	c.mu.Unlock()

	_, err := c.api.UpsertPlan(ctx, c.userID, snapshot)

	c.mu.Lock()
	c.syncErr = err
	c.mu.Unlock()

	if err != nil {
		log.Errorf("push weekly plan for %s: %s", c.userID, err)
	}
}

func (c *Controller) weekSnapshotLocked() weekplan.WeeklyPlan {
	var plan weekplan.WeeklyPlan
	for _, day := range weekplan.DayKeys {
		slot := weekplan.UnsetSlot()
		if activity, ok := c.assigned[day]; ok {
			slot = weekplan.SlotOf(*activity)
		}
		// day keys come from DayKeys, SetDay cannot fail here
		_ = plan.SetDay(day, slot)
	}
	return plan
}

func validDayKey(day string) bool {
	for _, key := range weekplan.DayKeys {
		if key == day {
			return true
		}
	}
	return false
}
