package models

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the stored account record. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Password   string     `json:"-"`
	Role       string     `json:"role"`
	Active     bool       `json:"active"`
	LastAccess *time.Time `json:"lastAccess,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags,omitempty"`
	UserID      int64      `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type UpdateProfileRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=100"`
}

// DueDate is carried as a string so both RFC 3339 timestamps and date-only
// YYYY-MM-DD values bind; the duedate rule rejects everything else with a
// per-field message instead of a body-level decode error.
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	DueDate     *string  `json:"dueDate" validate:"omitempty,duedate"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string `json:"tags" validate:"omitempty,dive,required,max=50"`
}

// UpdateTaskRequest is a partial patch: only non-nil fields are applied.
// An empty dueDate string clears the stored date.
type UpdateTaskRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Completed   *bool    `json:"completed"`
	DueDate     *string  `json:"dueDate" validate:"omitempty,duedate"`
	Priority    *string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string `json:"tags" validate:"omitempty,dive,required,max=50"`
}

// TaskFilter narrows and pages a task listing. Nil/zero fields are ignored.
type TaskFilter struct {
	Completed *bool
	Priority  string
	Search    string
	Page      int
	Limit     int
}

func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type TaskStats struct {
	Total      int64            `json:"total"`
	Completed  int64            `json:"completed"`
	Pending    int64            `json:"pending"`
	ByPriority map[string]int64 `json:"byPriority"`
}
