package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

const queryTimeout = 15 * time.Second

// uniqueViolation is the Postgres error code raised on duplicate keys.
const uniqueViolation = "23505"

// taskOrder is the fixed listing order: incomplete tasks first, then
// earliest due date (tasks without one last), newest created breaking ties.
const taskOrder = "ORDER BY completed ASC, due_date ASC NULLS LAST, created_at DESC"

// likeEscaper neutralizes LIKE metacharacters so free-text search matches
// them literally, the same way the in-memory store's substring match does.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type Storage struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewStorage connects to Postgres with a pooled connection set, retrying up
// to retries times with delay between attempts before giving up.
func NewStorage(ctx context.Context, connStr string, retries int, delay time.Duration, logger zerolog.Logger) (*Storage, error) {
	if connStr == "" {
		return nil, domain.ErrEmptyDSN
	}
	if retries < 1 {
		retries = 1
	}

	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		pool, err = connect(ctx, connStr)
		if err == nil {
			logger.Info().Int("attempt", attempt).Msg("database connection established")
			return &Storage{pool: pool, log: logger}, nil
		}

		logger.Warn().Err(err).Int("attempt", attempt).Int("retries", retries).Msg("database connection failed")
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseConnection, err)
}

func connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

// Ping reports storage reachability for the health endpoint.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password, role, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.Password, user.Role, user.Active)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEmailTaken
		}
		s.log.Error().Err(err).Str("email", user.Email).Msg("insert user failed")
		return err
	}
	return nil
}

const userColumns = "id, name, email, role, active, last_access, created_at, updated_at"

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// The password hash is deliberately not loaded here; this is the read
	// used on every authenticated request.
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Active,
		&user.LastAccess, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		s.log.Error().Err(err).Int64("userId", id).Msg("select user failed")
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password, role, active, last_access, created_at, updated_at
		 FROM users WHERE email = $1`, email)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Role,
		&user.Active, &user.LastAccess, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		s.log.Error().Err(err).Str("email", email).Msg("select user failed")
		return nil, err
	}
	return user, nil
}

func (s *Storage) UpdateUserName(ctx context.Context, id int64, name string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`UPDATE users SET name = $1, updated_at = now() WHERE id = $2
		 RETURNING `+userColumns, name, id)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Active,
		&user.LastAccess, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		s.log.Error().Err(err).Int64("userId", id).Msg("update user failed")
		return nil, err
	}
	return user, nil
}

func (s *Storage) UpdateLastAccess(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`UPDATE users SET last_access = now() WHERE id = $1
		 RETURNING `+userColumns, id)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Active,
		&user.LastAccess, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		s.log.Error().Err(err).Int64("userId", id).Msg("update last access failed")
		return nil, err
	}
	return user, nil
}

const taskColumns = "id, title, description, completed, due_date, priority, tags, user_id, created_at, updated_at"

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Completed,
		&task.DueDate, &task.Priority, &task.Tags, &task.UserID,
		&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if task.Tags == nil {
		task.Tags = []string{}
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (title, description, completed, due_date, priority, tags, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		task.Title, task.Description, task.Completed, task.DueDate, task.Priority, task.Tags, task.UserID)
	if err := row.Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		s.log.Error().Err(err).Int64("userId", task.UserID).Msg("insert task failed")
		return err
	}
	return nil
}

func (s *Storage) GetTask(ctx context.Context, id, userID int64) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		s.log.Error().Err(err).Int64("taskId", id).Msg("select task failed")
		return nil, err
	}
	return task, nil
}

func (s *Storage) ListTasks(ctx context.Context, userID int64, filter models.TaskFilter) ([]models.Task, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	where := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		where = append(where, fmt.Sprintf("completed = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM tasks WHERE `+cond, args...).Scan(&total); err != nil {
		s.log.Error().Err(err).Int64("userId", userID).Msg("count tasks failed")
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s %s LIMIT $%d OFFSET $%d`,
		taskColumns, cond, taskOrder, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.log.Error().Err(err).Int64("userId", userID).Msg("select tasks failed")
		return nil, 0, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if task.Tags == nil {
		task.Tags = []string{}
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, completed = $3, due_date = $4, priority = $5, tags = $6, updated_at = now()
		 WHERE id = $7 AND user_id = $8
		 RETURNING updated_at`,
		task.Title, task.Description, task.Completed, task.DueDate, task.Priority, task.Tags,
		task.ID, task.UserID)
	if err := row.Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		s.log.Error().Err(err).Int64("taskId", task.ID).Msg("update task failed")
		return err
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		s.log.Error().Err(err).Int64("taskId", id).Msg("delete task failed")
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// TaskStats aggregates per-user counts in a single grouped round trip.
func (s *Storage) TaskStats(ctx context.Context, userID int64) (*models.TaskStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT priority, completed, count(*) FROM tasks WHERE user_id = $1 GROUP BY priority, completed`,
		userID)
	if err != nil {
		s.log.Error().Err(err).Int64("userId", userID).Msg("task statistics failed")
		return nil, err
	}
	defer rows.Close()

	stats := &models.TaskStats{ByPriority: make(map[string]int64)}
	for rows.Next() {
		var priority string
		var completed bool
		var count int64
		if err := rows.Scan(&priority, &completed, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		if completed {
			stats.Completed += count
		} else {
			stats.Pending += count
		}
		stats.ByPriority[priority] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
