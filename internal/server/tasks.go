package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

func (api *TaskAPI) listTasks(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}

	filter, fields := parseTaskFilter(ctx)
	if fields != nil {
		respondValidation(ctx, fields)
		return
	}

	tasks, total, err := api.tasks.ListTasks(ctx.Request.Context(), user.ID, filter)
	if err != nil {
		api.log.Error().Err(err).Int64("userId", user.ID).Msg("failed to list tasks")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	totalPages := (total + int64(filter.Limit) - 1) / int64(filter.Limit)
	respondData(ctx, http.StatusOK, "", gin.H{
		"tasks": tasks,
		"pagination": models.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func (api *TaskAPI) getTask(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}
	id, ok := parsePathID(ctx, "taskID")
	if !ok {
		return
	}

	task, err := api.tasks.GetTask(ctx.Request.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, domain.ErrTaskNotFound.Error())
			return
		}
		api.log.Error().Err(err).Int64("taskId", id).Msg("failed to get task")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusOK, "", gin.H{"task": task})
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}

	var req models.CreateTaskRequest
	if !bindJSON(ctx, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if !api.validateStruct(ctx, &req) {
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	task := &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Completed:   false,
		DueDate:     dueDateValue(req.DueDate),
		Priority:    priority,
		Tags:        req.Tags,
		UserID:      user.ID,
	}
	if err := api.tasks.CreateTask(ctx.Request.Context(), task); err != nil {
		api.log.Error().Err(err).Int64("userId", user.ID).Msg("failed to create task")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusCreated, "task created successfully", gin.H{"task": task})
}

// updateTask applies a partial patch: only fields present in the body
// change, everything else keeps its stored value.
func (api *TaskAPI) updateTask(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}
	id, ok := parsePathID(ctx, "taskID")
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		req.Description = &trimmed
	}
	if !api.validateStruct(ctx, &req) {
		return
	}

	task, err := api.tasks.GetTask(ctx.Request.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, domain.ErrTaskNotFound.Error())
			return
		}
		api.log.Error().Err(err).Int64("taskId", id).Msg("failed to get task")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.DueDate != nil {
		task.DueDate = dueDateValue(req.DueDate)
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Tags != nil {
		task.Tags = req.Tags
	}

	if err := api.tasks.UpdateTask(ctx.Request.Context(), task); err != nil {
		// The task may have been deleted between the read and the write.
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, domain.ErrTaskNotFound.Error())
			return
		}
		api.log.Error().Err(err).Int64("taskId", id).Msg("failed to update task")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusOK, "task updated successfully", gin.H{"task": task})
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}
	id, ok := parsePathID(ctx, "taskID")
	if !ok {
		return
	}

	if err := api.tasks.DeleteTask(ctx.Request.Context(), id, user.ID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(ctx, http.StatusNotFound, domain.ErrTaskNotFound.Error())
			return
		}
		api.log.Error().Err(err).Int64("taskId", id).Msg("failed to delete task")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusOK, "task deleted successfully", nil)
}

func (api *TaskAPI) taskStats(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}

	stats, err := api.tasks.TaskStats(ctx.Request.Context(), user.ID)
	if err != nil {
		api.log.Error().Err(err).Int64("userId", user.ID).Msg("failed to compute task statistics")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusOK, "", gin.H{"stats": stats})
}
