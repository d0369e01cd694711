package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

func newUser(email string) *models.User {
	return &models.User{
		Name:     "Test User",
		Email:    email,
		Password: "$2a$10$hash",
		Role:     models.RoleUser,
		Active:   true,
	}
}

func TestCreateUserEnforcesUniqueEmail(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	first := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, first))
	assert.Equal(t, int64(1), first.ID)

	dup := newUser("alice@example.com")
	assert.ErrorIs(t, s.CreateUser(ctx, dup), domain.ErrEmailTaken)
}

func TestGetUserByIDExcludesPasswordHash(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Password)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, byEmail.Password, "login path needs the stored hash")
}

func TestUserLookupsNotFound(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	_, err := s.GetUserByID(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.UpdateUserName(ctx, 1, "New Name")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.UpdateLastAccess(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateLastAccess(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))
	require.Nil(t, user.LastAccess)

	got, err := s.UpdateLastAccess(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastAccess)
}

func seedUserWithTasks(t *testing.T, s *Storage) int64 {
	t.Helper()
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	due := func(d int) *time.Time {
		ts := time.Date(2026, 9, d, 10, 0, 0, 0, time.UTC)
		return &ts
	}
	tasks := []*models.Task{
		{Title: "pay rent", DueDate: due(3), Priority: models.PriorityHigh, UserID: user.ID},
		{Title: "buy groceries", DueDate: due(1), Priority: models.PriorityLow, UserID: user.ID},
		{Title: "call dentist", Priority: models.PriorityMedium, UserID: user.ID},
		{Title: "water plants", DueDate: due(2), Priority: models.PriorityMedium, Completed: true, UserID: user.ID},
	}
	for _, task := range tasks {
		require.NoError(t, s.CreateTask(ctx, task))
	}
	return user.ID
}

func TestListTasksOrdering(t *testing.T) {
	s := NewStorage()
	userID := seedUserWithTasks(t, s)

	tasks, total, err := s.ListTasks(context.Background(), userID, models.TaskFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	titles := make([]string, 0, len(tasks))
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"buy groceries", "pay rent", "call dentist", "water plants"}, titles)
}

func TestListTasksFilters(t *testing.T) {
	s := NewStorage()
	userID := seedUserWithTasks(t, s)
	ctx := context.Background()
	completed := true

	tests := []struct {
		name   string
		filter models.TaskFilter
		want   []string
	}{
		{
			name:   "completed",
			filter: models.TaskFilter{Completed: &completed, Page: 1, Limit: 10},
			want:   []string{"water plants"},
		},
		{
			name:   "priority",
			filter: models.TaskFilter{Priority: models.PriorityHigh, Page: 1, Limit: 10},
			want:   []string{"pay rent"},
		},
		{
			name:   "search in title case-insensitive",
			filter: models.TaskFilter{Search: "GROCERIES", Page: 1, Limit: 10},
			want:   []string{"buy groceries"},
		},
		{
			name:   "search misses",
			filter: models.TaskFilter{Search: "nothing", Page: 1, Limit: 10},
			want:   []string{},
		},
		{
			name:   "wildcard characters match literally",
			filter: models.TaskFilter{Search: "%", Page: 1, Limit: 10},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, _, err := s.ListTasks(ctx, userID, tt.filter)
			require.NoError(t, err)

			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestListTasksSearchesDescription(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))
	require.NoError(t, s.CreateTask(ctx, &models.Task{
		Title:       "errands",
		Description: "pick up the dry cleaning",
		Priority:    models.PriorityMedium,
		UserID:      user.ID,
	}))

	tasks, total, err := s.ListTasks(ctx, user.ID, models.TaskFilter{Search: "Dry Cleaning", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "errands", tasks[0].Title)
}

func TestListTasksPagination(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))
	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateTask(ctx, &models.Task{
			Title:    fmt.Sprintf("task %d", i),
			Priority: models.PriorityMedium,
			UserID:   user.ID,
		}))
	}

	tasks, total, err := s.ListTasks(ctx, user.ID, models.TaskFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, tasks, 2)

	tasks, total, err = s.ListTasks(ctx, user.ID, models.TaskFilter{Page: 4, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, tasks)
}

func TestTaskOwnership(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	alice := newUser("alice@example.com")
	bob := newUser("bob@example.com")
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	task := &models.Task{Title: "secret", Priority: models.PriorityMedium, UserID: alice.ID}
	require.NoError(t, s.CreateTask(ctx, task))

	_, err := s.GetTask(ctx, task.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = s.UpdateTask(ctx, &models.Task{ID: task.ID, Title: "hijacked", UserID: bob.ID})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = s.DeleteTask(ctx, task.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	got, err := s.GetTask(ctx, task.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Title)
}

func TestUpdateTaskKeepsCreatedAt(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	task := &models.Task{Title: "original", Priority: models.PriorityMedium, UserID: user.ID}
	require.NoError(t, s.CreateTask(ctx, task))
	created := task.CreatedAt

	patched := *task
	patched.Title = "renamed"
	require.NoError(t, s.UpdateTask(ctx, &patched))

	got, err := s.GetTask(ctx, task.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestDeleteTask(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	user := newUser("alice@example.com")
	require.NoError(t, s.CreateUser(ctx, user))
	task := &models.Task{Title: "to delete", Priority: models.PriorityMedium, UserID: user.ID}
	require.NoError(t, s.CreateTask(ctx, task))

	require.NoError(t, s.DeleteTask(ctx, task.ID, user.ID))
	assert.ErrorIs(t, s.DeleteTask(ctx, task.ID, user.ID), domain.ErrTaskNotFound)
}

func TestTaskStats(t *testing.T) {
	s := NewStorage()
	userID := seedUserWithTasks(t, s)

	stats, err := s.TaskStats(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(3), stats.Pending)
	assert.Equal(t, int64(1), stats.ByPriority[models.PriorityHigh])
	assert.Equal(t, int64(1), stats.ByPriority[models.PriorityLow])
	assert.Equal(t, int64(2), stats.ByPriority[models.PriorityMedium])
}

func TestTaskStatsEmptyUser(t *testing.T) {
	s := NewStorage()

	stats, err := s.TaskStats(context.Background(), 99)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.ByPriority)
}
