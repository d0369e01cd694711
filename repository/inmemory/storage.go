// Package storage provides an in-memory repository with the same contract
// as the Postgres one. It backs the handler tests and DB-less runs.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

type Storage struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	tasks      map[int64]models.Task
	nextUserID int64
	nextTaskID int64
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[int64]models.User),
		tasks: make(map[int64]models.Task),
	}
}

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}

	s.nextUserID++
	now := time.Now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

// GetUserByID never exposes the stored hash, matching the SQL query used on
// authenticated requests.
func (s *Storage) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	user.Password = ""
	return &user, nil
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Storage) UpdateUserName(_ context.Context, id int64, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	user.Name = name
	user.UpdatedAt = time.Now()
	s.users[id] = user
	user.Password = ""
	return &user, nil
}

func (s *Storage) UpdateLastAccess(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	now := time.Now()
	user.LastAccess = &now
	s.users[id] = user
	user.Password = ""
	return &user, nil
}

// DeactivateUser flips the active flag; used by tests covering the
// inactive-account login path.
func (s *Storage) DeactivateUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return domain.ErrUserNotFound
	}
	user.Active = false
	s.users[id] = user
	return nil
}

func (s *Storage) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTaskID++
	now := time.Now()
	task.ID = s.nextTaskID
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Tags == nil {
		task.Tags = []string{}
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *Storage) GetTask(_ context.Context, id, userID int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, exists := s.tasks[id]
	if !exists || task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (s *Storage) ListTasks(_ context.Context, userID int64, filter models.TaskFilter) ([]models.Task, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Task, 0)
	for _, task := range s.tasks {
		if task.UserID != userID {
			continue
		}
		if filter.Completed != nil && task.Completed != *filter.Completed {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if filter.Search != "" && !matchesSearch(task, filter.Search) {
			continue
		}
		matched = append(matched, task)
	}

	sortTasks(matched)

	total := int64(len(matched))
	start := filter.Offset()
	if start >= len(matched) {
		return []models.Task{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesSearch(task models.Task, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(task.Title), needle) ||
		strings.Contains(strings.ToLower(task.Description), needle)
}

// sortTasks applies the fixed three-key order: incomplete before complete,
// then ascending due date with missing dates last, then newest first.
func sortTasks(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
		case a.DueDate != nil:
			return true
		case b.DueDate != nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (s *Storage) UpdateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.tasks[task.ID]
	if !exists || existing.UserID != task.UserID {
		return domain.ErrTaskNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	if task.Tags == nil {
		task.Tags = []string{}
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *Storage) DeleteTask(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[id]
	if !exists || task.UserID != userID {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) TaskStats(_ context.Context, userID int64) (*models.TaskStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.TaskStats{ByPriority: make(map[string]int64)}
	for _, task := range s.tasks {
		if task.UserID != userID {
			continue
		}
		stats.Total++
		if task.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		stats.ByPriority[task.Priority]++
	}
	return stats, nil
}
