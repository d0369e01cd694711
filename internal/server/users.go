package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

func (api *TaskAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(ctx, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !api.validateStruct(ctx, &req) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.log.Error().Err(err).Msg("failed to hash password")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
		Role:     models.RoleUser,
		Active:   true,
	}
	if err := api.users.CreateUser(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			respondError(ctx, http.StatusBadRequest, domain.ErrEmailTaken.Error())
			return
		}
		api.log.Error().Err(err).Str("email", req.Email).Msg("failed to create user")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	access, refresh, err := api.codec.Issue(user)
	if err != nil {
		api.log.Error().Err(err).Int64("userId", user.ID).Msg("failed to issue token")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusCreated, "user registered successfully", gin.H{
		"user":         user,
		"token":        access,
		"refreshToken": refresh,
	})
}

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !api.validateStruct(ctx, &req) {
		return
	}

	user, err := api.users.GetUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
			return
		}
		api.log.Error().Err(err).Str("email", req.Email).Msg("failed to load user")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	// Inactive accounts are rejected distinctly from bad credentials, but
	// only here: issued tokens stay valid until expiry.
	if !user.Active {
		respondError(ctx, http.StatusForbidden, domain.ErrAccountInactive.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
		return
	}

	user, err = api.users.UpdateLastAccess(ctx.Request.Context(), user.ID)
	if err != nil {
		api.log.Error().Err(err).Str("email", req.Email).Msg("failed to update last access")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	access, refresh, err := api.codec.Issue(user)
	if err != nil {
		api.log.Error().Err(err).Int64("userId", user.ID).Msg("failed to issue token")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusOK, "login successful", gin.H{
		"user":         user,
		"token":        access,
		"refreshToken": refresh,
	})
}

// refresh exchanges a valid refresh token for a fresh token pair.
func (api *TaskAPI) refresh(ctx *gin.Context) {
	var req models.RefreshRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if !api.validateStruct(ctx, &req) {
		return
	}

	claims, err := api.codec.VerifyRefresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			respondError(ctx, http.StatusUnauthorized, domain.ErrTokenExpired.Error())
			return
		}
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}

	user, err := api.users.GetUserByID(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}

	access, refreshToken, err := api.codec.Issue(user)
	if err != nil {
		api.log.Error().Err(err).Int64("userId", user.ID).Msg("failed to issue token")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusOK, "token refreshed", gin.H{
		"token":        access,
		"refreshToken": refreshToken,
	})
}

func (api *TaskAPI) getProfile(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}
	respondData(ctx, http.StatusOK, "", gin.H{"user": user})
}

// updateProfile changes the name only; email is immutable through this path.
func (api *TaskAPI) updateProfile(ctx *gin.Context) {
	user := currentUser(ctx)
	if user == nil {
		respondError(ctx, http.StatusUnauthorized, domain.ErrInvalidToken.Error())
		return
	}

	var req models.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if !api.validateStruct(ctx, &req) {
		return
	}

	if req.Name == nil {
		respondData(ctx, http.StatusOK, "profile unchanged", gin.H{"user": user})
		return
	}

	updated, err := api.users.UpdateUserName(ctx.Request.Context(), user.ID, *req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(ctx, http.StatusNotFound, domain.ErrUserNotFound.Error())
			return
		}
		api.log.Error().Err(err).Int64("userId", user.ID).Msg("failed to update profile")
		respondError(ctx, http.StatusInternalServerError, domain.ErrInternalServer.Error())
		return
	}

	respondData(ctx, http.StatusOK, "profile updated successfully", gin.H{"user": updated})
}
