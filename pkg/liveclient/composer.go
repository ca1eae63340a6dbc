package liveclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"talentvault_backend/internal/models"
	"talentvault_backend/internal/services/dto"
)

// Composer validation errors. These fire locally, before any network call.
var (
	ErrTitleRequired    = errors.New("title is required")
	ErrMessageRequired  = errors.New("message is required")
	ErrRoleRequired     = errors.New("target role is required")
	ErrNoUsersSelected  = errors.New("no users selected")
	ErrUnknownTarget    = errors.New("unknown target type")
	ErrAlreadySubmitted = errors.New("submission already in flight")
)

const searchDebounce = 300 * time.Millisecond

// Composer drives the admin broadcast flow: pick a target set, preview its
// size, submit. Counts come from a stats snapshot fetched once per session;
// the authoritative recipient set is resolved server-side at send time, so
// the preview is best-effort by design.
type Composer struct {
	api API

	mu         sync.Mutex
	targetType models.BroadcastTargetType
	targetRole models.UserRole
	selected   map[string]dto.UserResponse
	stats      *dto.BroadcastStatsResponse
	submitting bool

	searchTimer *time.Timer
}

func NewComposer(api API) *Composer {
	return &Composer{
		api:        api,
		targetType: models.BroadcastTargetAll,
		selected:   make(map[string]dto.UserResponse),
	}
}

// LoadStats fetches the population snapshot backing PreviewCount.
func (c *Composer) LoadStats(ctx context.Context) error {
	stats, err := c.api.BroadcastStats(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.stats = stats
	c.mu.Unlock()
	return nil
}

func (c *Composer) SetTargetType(t models.BroadcastTargetType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetType = t
	if t != models.BroadcastTargetRole {
		c.targetRole = ""
	}
	if t != models.BroadcastTargetIndividual {
		c.selected = make(map[string]dto.UserResponse)
	}
}

func (c *Composer) SetTargetRole(role models.UserRole) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetRole = role
}

// SelectUser adds a user to the individual target set. Selecting the same
// user twice is a no-op.
func (c *Composer) SelectUser(user dto.UserResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected[user.ID] = user
}

func (c *Composer) DeselectUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.selected, userID)
}

func (c *Composer) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	return ids
}

// Search schedules a debounced user search; only the last query within the
// debounce window runs. Already-selected users are excluded from results.
func (c *Composer) Search(ctx context.Context, query string, callback func([]dto.UserResponse, error)) {
	c.mu.Lock()
	if c.searchTimer != nil {
		c.searchTimer.Stop()
	}
	exclude := make([]string, 0, len(c.selected))
	for id := range c.selected {
		exclude = append(exclude, id)
	}
	c.searchTimer = time.AfterFunc(searchDebounce, func() {
		callback(c.api.SearchUsers(ctx, query, 20, exclude))
	})
	c.mu.Unlock()
}

// PreviewCount returns the size of the target set as of the last stats
// snapshot: total users for "all", the per-role count for "role", and the
// selected-set size for "individual".
func (c *Composer) PreviewCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.targetType {
	case models.BroadcastTargetAll:
		if c.stats != nil {
			return c.stats.TotalUsers
		}
	case models.BroadcastTargetRole:
		if c.stats != nil {
			for _, rc := range c.stats.ByRole {
				if rc.Role == c.targetRole {
					return rc.Count
				}
			}
		}
	case models.BroadcastTargetIndividual:
		return int64(len(c.selected))
	}
	return 0
}

// Validate checks the submission locally. A validation failure must not
// issue any network call.
func (c *Composer) Validate(title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked(title, message)
}

func (c *Composer) validateLocked(title, message string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if message == "" {
		return ErrMessageRequired
	}
	switch c.targetType {
	case models.BroadcastTargetAll:
	case models.BroadcastTargetRole:
		if c.targetRole == "" {
			return ErrRoleRequired
		}
	case models.BroadcastTargetIndividual:
		if len(c.selected) == 0 {
			return ErrNoUsersSelected
		}
	default:
		return ErrUnknownTarget
	}
	return nil
}

// Submit validates and sends the broadcast, returning the server-resolved
// recipient count.
func (c *Composer) Submit(ctx context.Context, title, message string) (int64, error) {
	c.mu.Lock()
	if err := c.validateLocked(title, message); err != nil {
		c.mu.Unlock()
		return 0, err
	}
	if c.submitting {
		c.mu.Unlock()
		return 0, ErrAlreadySubmitted
	}
	c.submitting = true

	req := &dto.SendBroadcastRequest{
		Title:      title,
		Message:    message,
		TargetType: c.targetType,
	}
	switch c.targetType {
	case models.BroadcastTargetRole:
		req.TargetRole = c.targetRole
	case models.BroadcastTargetIndividual:
		for id := range c.selected {
			req.TargetUserIDs = append(req.TargetUserIDs, id)
		}
	}
	c.mu.Unlock()

	result, err := c.api.SendBroadcast(ctx, req)

	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()

	if err != nil {
		return 0, err
	}
	return result.RecipientCount, nil
}
