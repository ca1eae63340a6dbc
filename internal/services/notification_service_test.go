package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentvault_backend/internal/appErrors"
	"talentvault_backend/internal/models"
	"talentvault_backend/internal/repositories"
	"talentvault_backend/internal/services/dto"
)

func newNotificationSvc(t *testing.T) (NotificationService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return NewNotificationService(env.notifRepo, env.userRepo), env
}

func TestNotificationServiceCreateAndGet(t *testing.T) {
	svc, env := newNotificationSvc(t)
	recipient := env.seedUser(t, "r@example.com", models.UserRoleUser)

	created, err := svc.CreateNotification(&dto.CreateNotificationRequest{
		RecipientID: recipient.ID,
		Type:        repositories.NotificationTypeBroadcast,
		Title:       "Hello",
		Message:     "body",
		Data:        map[string]interface{}{"broadcast_id": "b-1"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := svc.GetNotification(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fetched.Title)
	assert.Equal(t, "b-1", fetched.Data["broadcast_id"])
	assert.False(t, fetched.IsRead)
}

func TestNotificationServiceCreateValidation(t *testing.T) {
	svc, env := newNotificationSvc(t)
	recipient := env.seedUser(t, "r@example.com", models.UserRoleUser)

	_, err := svc.CreateNotification(&dto.CreateNotificationRequest{
		RecipientID: "missing",
		Type:        repositories.NotificationTypeLike,
		Title:       "x",
	})
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)

	_, err = svc.CreateNotification(&dto.CreateNotificationRequest{
		RecipientID: recipient.ID,
		Type:        "teleport",
		Title:       "x",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidationFailed)
}

func TestNotificationServiceMarkAsReadOwnership(t *testing.T) {
	svc, env := newNotificationSvc(t)
	owner := env.seedUser(t, "owner@example.com", models.UserRoleUser)
	stranger := env.seedUser(t, "stranger@example.com", models.UserRoleUser)

	created, err := svc.CreateNotification(&dto.CreateNotificationRequest{
		RecipientID: owner.ID,
		Type:        repositories.NotificationTypeLike,
		Title:       "liked",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkAsRead(stranger.ID, created.ID), appErrors.ErrForbidden)
	require.NoError(t, svc.MarkAsRead(owner.ID, created.ID))

	count, err := svc.GetUnreadCount(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestNotificationServiceDeleteOwnership(t *testing.T) {
	svc, env := newNotificationSvc(t)
	owner := env.seedUser(t, "owner@example.com", models.UserRoleUser)
	stranger := env.seedUser(t, "stranger@example.com", models.UserRoleUser)

	created, err := svc.CreateNotification(&dto.CreateNotificationRequest{
		RecipientID: owner.ID,
		Type:        repositories.NotificationTypeLike,
		Title:       "liked",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteNotification(stranger.ID, created.ID), appErrors.ErrForbidden)
	require.NoError(t, svc.DeleteNotification(owner.ID, created.ID))

	_, err = svc.GetNotification(created.ID)
	assert.ErrorIs(t, err, repositories.ErrNotificationNotFound)
}

func TestNotificationServicePagination(t *testing.T) {
	svc, env := newNotificationSvc(t)
	recipient := env.seedUser(t, "r@example.com", models.UserRoleUser)

	for i := 0; i < 25; i++ {
		require.NoError(t, svc.NotifyNewFollower(recipient.ID, "someone"))
	}

	list, err := svc.GetUserNotifications(recipient.ID, dto.NotificationCriteria{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), list.Total)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, 3, list.TotalPages)
	assert.Len(t, list.Notifications, 10)
}

func TestNotificationServiceFactoryMethods(t *testing.T) {
	svc, env := newNotificationSvc(t)
	recipient := env.seedUser(t, "r@example.com", models.UserRoleUser)

	require.NoError(t, svc.NotifyVideoLiked(recipient.ID, "Ana", "v-1"))
	require.NoError(t, svc.NotifyNewComment(recipient.ID, "Bob", "v-1"))
	require.NoError(t, svc.NotifyNewFollower(recipient.ID, "Cleo"))
	require.NoError(t, svc.NotifyNewMessage(recipient.ID, "Dana"))

	stats, err := svc.GetUserNotificationStats(recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalNotifications)
	assert.Equal(t, int64(1), stats.ByType[repositories.NotificationTypeLike])
	assert.Equal(t, int64(1), stats.ByType[repositories.NotificationTypeComment])
	assert.Equal(t, int64(1), stats.ByType[repositories.NotificationTypeFollow])
	assert.Equal(t, int64(1), stats.ByType[repositories.NotificationTypeMessage])
}
