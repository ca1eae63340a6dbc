package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"talentvault_backend/internal/appErrors"
	"talentvault_backend/internal/models"
	"talentvault_backend/internal/repositories"
	"talentvault_backend/internal/services/dto"
	"talentvault_backend/ws"
)

// recordingPublisher captures published events instead of delivering them.
type recordingPublisher struct {
	mu         sync.Mutex
	industry   []ws.IndustryEvent
	broadcasts []ws.BroadcastEvent
}

func (p *recordingPublisher) PublishIndustry(ev ws.IndustryEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.industry = append(p.industry, ev)
}

func (p *recordingPublisher) PublishBroadcast(ev ws.BroadcastEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, ev)
}

type testEnv struct {
	db        *gorm.DB
	userRepo  repositories.UserRepository
	notifRepo repositories.NotificationRepository
	bcastRepo repositories.BroadcastRepository
	publisher *recordingPublisher
	svc       BroadcastService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}, &models.Broadcast{}))

	env := &testEnv{
		db:        db,
		userRepo:  repositories.NewUserRepository(db),
		notifRepo: repositories.NewNotificationRepository(db),
		bcastRepo: repositories.NewBroadcastRepository(db),
		publisher: &recordingPublisher{},
	}
	env.svc = NewBroadcastService(env.bcastRepo, env.notifRepo, env.userRepo, env.publisher, nil)
	return env
}

func (e *testEnv) seedUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		DisplayName:  email,
		PasswordHash: "irrelevant",
		Role:         role,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, e.userRepo.Create(u))
	return u
}

func (e *testEnv) seedPopulation(t *testing.T, users, creators, agents int) {
	t.Helper()
	for i := 0; i < users; i++ {
		e.seedUser(t, fmt.Sprintf("user-%d@example.com", i), models.UserRoleUser)
	}
	for i := 0; i < creators; i++ {
		e.seedUser(t, fmt.Sprintf("creator-%d@example.com", i), models.UserRoleCreator)
	}
	for i := 0; i < agents; i++ {
		e.seedUser(t, fmt.Sprintf("agent-%d@example.com", i), models.UserRoleAgent)
	}
}

func TestBroadcastStatsCountsByRole(t *testing.T) {
	env := newTestEnv(t)
	env.seedPopulation(t, 10, 3, 2)

	stats, err := env.svc.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(15), stats.TotalUsers)

	byRole := make(map[models.UserRole]int64)
	for _, rc := range stats.ByRole {
		byRole[rc.Role] = rc.Count
	}
	assert.Equal(t, int64(10), byRole[models.UserRoleUser])
	assert.Equal(t, int64(3), byRole[models.UserRoleCreator])
	assert.Equal(t, int64(2), byRole[models.UserRoleAgent])
}

func TestBroadcastSendToAll(t *testing.T) {
	env := newTestEnv(t)
	env.seedPopulation(t, 10, 3, 2)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	result, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title:      "Maintenance",
		Message:    "Site down 10pm",
		TargetType: models.BroadcastTargetAll,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(16), result.RecipientCount)
	assert.NotEmpty(t, result.BroadcastID)

	// One persisted notification per recipient.
	var count int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("type = ?", repositories.NotificationTypeBroadcast).
		Count(&count).Error)
	assert.Equal(t, int64(16), count)

	require.Len(t, env.publisher.broadcasts, 1)
	ev := env.publisher.broadcasts[0]
	assert.Equal(t, "Maintenance", ev.Title)
	assert.Equal(t, []models.TargetTag{models.TargetTagAll}, ev.Targets)
	assert.Empty(t, ev.TargetUserIDs)
}

func TestBroadcastSendToRole(t *testing.T) {
	env := newTestEnv(t)
	env.seedPopulation(t, 10, 3, 2)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	result, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title:      "Agent update",
		Message:    "New casting tools",
		TargetType: models.BroadcastTargetRole,
		TargetRole: models.UserRoleAgent,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RecipientCount)

	require.Len(t, env.publisher.broadcasts, 1)
	assert.Equal(t, []models.TargetTag{models.TargetTagAgents}, env.publisher.broadcasts[0].Targets)
}

func TestBroadcastSendToIndividuals(t *testing.T) {
	env := newTestEnv(t)
	picked := env.seedUser(t, "picked@example.com", models.UserRoleUser)
	env.seedUser(t, "other@example.com", models.UserRoleUser)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	result, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title:         "Just for you",
		Message:       "Hello",
		TargetType:    models.BroadcastTargetIndividual,
		TargetUserIDs: []string{picked.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RecipientCount)

	count, err := env.notifRepo.GetUnreadCount(picked.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.Len(t, env.publisher.broadcasts, 1)
	ev := env.publisher.broadcasts[0]
	assert.Empty(t, ev.Targets)
	assert.Equal(t, []string{picked.ID}, ev.TargetUserIDs)
}

func TestBroadcastSendRejectsInconsistentTarget(t *testing.T) {
	env := newTestEnv(t)
	env.seedPopulation(t, 2, 0, 0)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	tests := []struct {
		name string
		req  dto.SendBroadcastRequest
	}{
		{"individual with empty set", dto.SendBroadcastRequest{
			Title: "x", Message: "y", TargetType: models.BroadcastTargetIndividual,
		}},
		{"role without role", dto.SendBroadcastRequest{
			Title: "x", Message: "y", TargetType: models.BroadcastTargetRole,
		}},
		{"all with role set", dto.SendBroadcastRequest{
			Title: "x", Message: "y", TargetType: models.BroadcastTargetAll, TargetRole: models.UserRoleUser,
		}},
		{"role with user ids", dto.SendBroadcastRequest{
			Title: "x", Message: "y", TargetType: models.BroadcastTargetRole,
			TargetRole: models.UserRoleUser, TargetUserIDs: []string{"u-1"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Send(sender.ID, &tt.req)
			assert.ErrorIs(t, err, appErrors.ErrInconsistentTarget)
		})
	}

	_, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title: "x", Message: "y", TargetType: models.BroadcastTargetRole, TargetRole: "ghost",
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidUserRole)

	// Nothing was persisted or published for any rejected request.
	var count int64
	require.NoError(t, env.db.Model(&models.Broadcast{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	assert.Empty(t, env.publisher.broadcasts)
}

func TestBroadcastSendEmptyRecipientSet(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	// No creators exist, so the resolved set is empty.
	_, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title:      "x",
		Message:    "y",
		TargetType: models.BroadcastTargetRole,
		TargetRole: models.UserRoleCreator,
	})
	assert.ErrorIs(t, err, appErrors.ErrEmptyBroadcastTarget)
	assert.Empty(t, env.publisher.broadcasts)
}

func TestBroadcastSendUnknownIndividual(t *testing.T) {
	env := newTestEnv(t)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	_, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title:         "x",
		Message:       "y",
		TargetType:    models.BroadcastTargetIndividual,
		TargetUserIDs: []string{"missing-user"},
	})
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)
}

func TestBroadcastSendDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.seedPopulation(t, 1, 0, 0)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	result, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title:      "Defaults",
		Message:    "body",
		TargetType: models.BroadcastTargetAll,
	})
	require.NoError(t, err)

	stored, err := env.bcastRepo.FindByID(result.BroadcastID)
	require.NoError(t, err)
	assert.Equal(t, models.BroadcastPriorityNormal, stored.Priority)
	assert.True(t, stored.Dismissible)
	assert.False(t, stored.RequireAcknowledge)
}

func TestBroadcastSendNonDismissible(t *testing.T) {
	env := newTestEnv(t)
	env.seedPopulation(t, 1, 0, 0)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	dismissible := false
	result, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
		Title:              "Terms update",
		Message:            "Please acknowledge",
		TargetType:         models.BroadcastTargetAll,
		Priority:           models.BroadcastPriorityUrgent,
		Dismissible:        &dismissible,
		RequireAcknowledge: true,
	})
	require.NoError(t, err)

	stored, err := env.bcastRepo.FindByID(result.BroadcastID)
	require.NoError(t, err)
	assert.False(t, stored.Dismissible)
	assert.True(t, stored.RequireAcknowledge)
	assert.Equal(t, models.BroadcastPriorityUrgent, stored.Priority)

	require.Len(t, env.publisher.broadcasts, 1)
	assert.False(t, env.publisher.broadcasts[0].Dismissible)
	assert.True(t, env.publisher.broadcasts[0].RequireAcknowledge)
}

func TestSendIndustryAlertReachesAdminTier(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)
	super := env.seedUser(t, "super@example.com", models.UserRoleSuperAdmin)
	user := env.seedUser(t, "user@example.com", models.UserRoleUser)

	err := env.svc.SendIndustryAlert(admin.ID, &dto.SendIndustryAlertRequest{
		EventType: "service_degraded",
		Title:     "Transcoder lag",
		Message:   "Queue depth above threshold",
		Data:      map[string]interface{}{"queue_depth": 120},
	})
	require.NoError(t, err)

	for _, id := range []string{admin.ID, super.ID} {
		count, err := env.notifRepo.GetUnreadCount(id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "admin-tier user %s should be notified", id)
	}
	count, err := env.notifRepo.GetUnreadCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.Len(t, env.publisher.industry, 1)
	ev := env.publisher.industry[0]
	assert.Equal(t, "service_degraded", ev.EventType)
	assert.Equal(t, "Transcoder lag", ev.Title)
	assert.NotEmpty(t, ev.ID)
}

func TestBroadcastListRecent(t *testing.T) {
	env := newTestEnv(t)
	env.seedPopulation(t, 1, 0, 0)
	sender := env.seedUser(t, "admin@example.com", models.UserRoleAdmin)

	for i := 0; i < 3; i++ {
		_, err := env.svc.Send(sender.ID, &dto.SendBroadcastRequest{
			Title:      fmt.Sprintf("bcast %d", i),
			Message:    "body",
			TargetType: models.BroadcastTargetAll,
		})
		require.NoError(t, err)
	}

	recent, err := env.svc.ListRecent(2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
