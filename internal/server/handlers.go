package server

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/sociomanager/sociomanager/internal/geelark"
	"github.com/sociomanager/sociomanager/internal/models"
	"github.com/sociomanager/sociomanager/internal/service"
)

type outcomeDTO struct {
	Username string          `json:"username"`
	Platform models.Platform `json:"platform"`
	TaskID   string          `json:"task_id,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func outcomeDTOs(outcomes []service.Outcome) ([]outcomeDTO, int) {
	dtos := make([]outcomeDTO, 0, len(outcomes))
	succeeded := 0
	for _, o := range outcomes {
		dto := outcomeDTO{
			Username: o.Username,
			Platform: o.Platform,
			TaskID:   o.TaskID,
		}
		if o.Ok() {
			succeeded++
		} else {
			dto.Error = o.Err.Error()
		}
		dtos = append(dtos, dto)
	}
	return dtos, succeeded
}

// Auth

func (s *Server) handleAuthLogin(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	if !s.Auth.ValidateCode(req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code"})
		return
	}

	token := s.Auth.CreateSession()
	c.SetCookie("auth_token", token, int((12 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"msg": "Logged in"})
}

// Accounts

type accountRequest struct {
	MobileID string          `json:"mobile_id" binding:"required"`
	Platform models.Platform `json:"platform" binding:"required"`
	Username string          `json:"username" binding:"required"`
	Password string          `json:"password" binding:"required"`
}

func (r accountRequest) toModel() models.Account {
	return models.Account{
		MobileID: r.MobileID,
		Platform: r.Platform,
		Username: r.Username,
		Password: r.Password,
	}
}

func (s *Server) handleCreateAccounts(c *gin.Context) {
	// Accept a single account object or an array of them. Binding with
	// ShouldBindBodyWith keeps the body around for the second attempt.
	var reqs []accountRequest
	if err := c.ShouldBindBodyWith(&reqs, binding.JSON); err != nil {
		var single accountRequest
		if err := c.ShouldBindBodyWith(&single, binding.JSON); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account payload"})
			return
		}
		reqs = []accountRequest{single}
	}

	accounts := make([]models.Account, 0, len(reqs))
	for _, req := range reqs {
		accounts = append(accounts, req.toModel())
	}

	if err := s.Accounts.Create(c.Request.Context(), accounts); err != nil {
		s.Logger.Error("Failed to create accounts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create accounts"})
		return
	}

	// Log every new account into its platform right away
	outcomes := s.Dispatcher.DispatchFanout(c.Request.Context(), geelark.Action{Kind: geelark.ActionLogin}, accounts)
	results, succeeded := outcomeDTOs(outcomes)

	c.JSON(http.StatusOK, gin.H{
		"msg":           "Accounts created",
		"success_count": succeeded,
		"failed_count":  len(results) - succeeded,
		"results":       results,
	})
}

func (s *Server) handleListAccounts(c *gin.Context) {
	accounts, err := s.Accounts.All(c.Request.Context(), c.Query("search"), models.Platform(c.Query("platform")))
	if err != nil {
		s.Logger.Error("Failed to list accounts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) handleAccountsDropdown(c *gin.Context) {
	var platforms []models.Platform
	if raw := c.Query("platforms"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			platforms = append(platforms, models.Platform(strings.TrimSpace(p)))
		}
	}

	items, err := s.Accounts.Dropdown(c.Request.Context(), platforms)
	if err != nil {
		s.Logger.Error("Failed to list accounts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleUpdateAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return
	}

	var req struct {
		MobileID string          `json:"mobile_id"`
		Platform models.Platform `json:"platform"`
		Username string          `json:"username"`
		Password string          `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account payload"})
		return
	}

	updates := map[string]any{}
	if req.MobileID != "" {
		updates["mobile_id"] = req.MobileID
	}
	if req.Platform != "" {
		updates["platform"] = req.Platform
	}
	if req.Username != "" {
		updates["username"] = req.Username
	}
	if req.Password != "" {
		updates["password"] = req.Password
	}

	if err := s.Accounts.Update(c.Request.Context(), uint(id), updates); err != nil {
		s.Logger.Error("Failed to update account", zap.Uint64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Account updated successfully"})
}

func (s *Server) handleDeleteAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return
	}

	if err := s.Accounts.Delete(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Account deleted successfully"})
}

func (s *Server) handleLoginAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return
	}

	account, err := s.Accounts.Get(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	outcomes := s.Dispatcher.DispatchFanout(c.Request.Context(), geelark.Action{Kind: geelark.ActionLogin}, []models.Account{*account})
	results, succeeded := outcomeDTOs(outcomes)
	if succeeded == 0 {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Login dispatch failed", "results": results})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Login scheduled", "results": results})
}

// Phones

func (s *Server) handleListPhones(c *gin.Context) {
	phones, err := s.Phones.All(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list phones", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list phones"})
		return
	}
	c.JSON(http.StatusOK, phones)
}

func (s *Server) handlePhonesDropdown(c *gin.Context) {
	items, err := s.Phones.Dropdown(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list phones", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list phones"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleRefreshPhones(c *gin.Context) {
	count, err := s.Phones.Refresh(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to refresh phones", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to refresh phone inventory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Phones refreshed successfully", "count": count})
}

// Tasks

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.Ledger.AllTasks(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleQueryLiveTasks(c *gin.Context) {
	tasks, err := s.Ledger.AllTasks(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tasks"})
		return
	}

	if len(tasks) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No tasks found"})
		return
	}

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.TaskID)
	}

	live, err := s.Geelark.QueryTasks(c.Request.Context(), ids)
	if err != nil {
		s.Logger.Error("Live task query failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to query tasks"})
		return
	}
	c.JSON(http.StatusOK, live)
}

func (s *Server) handleCancelTask(c *gin.Context) {
	taskID := c.Param("taskId")

	if err := s.Geelark.CancelTask(c.Request.Context(), taskID); err != nil {
		s.Logger.Error("Failed to cancel task", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to cancel task"})
		return
	}

	// Remote cancel succeeded; drop the local task and its post together
	if err := s.Ledger.DeleteTask(c.Request.Context(), taskID); err != nil {
		s.Logger.Error("Task cancelled remotely but local delete failed",
			zap.String("task_id", taskID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Task cancelled but local record not removed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Task cancelled successfully"})
}

func (s *Server) handleRetryTask(c *gin.Context) {
	taskID := c.Param("taskId")

	if err := s.Geelark.RetryTask(c.Request.Context(), taskID); err != nil {
		s.Logger.Error("Failed to retry task", zap.String("task_id", taskID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to retry task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Task retried successfully"})
}

// Posts

func (s *Server) handleListPosts(c *gin.Context) {
	posts, err := s.Ledger.Posts(c.Request.Context(), service.PostFilter{
		Search:   c.Query("search"),
		Platform: models.Platform(c.Query("platform")),
		Status:   c.Query("status"),
	})
	if err != nil {
		s.Logger.Error("Failed to list posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

type schedulePostRequest struct {
	Caption    string `json:"caption" binding:"required"`
	MediaURL   string `json:"media_url" binding:"required"`
	ScheduleAt int64  `json:"schedule_at"`
	AccountIDs []uint `json:"account_ids" binding:"required,min=1"`
}

func (s *Server) handleSchedulePost(c *gin.Context) {
	var req schedulePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "caption, media_url and account_ids are required"})
		return
	}

	kind, err := mediaKindForURL(req.MediaURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accounts, err := s.Accounts.ByIDs(c.Request.Context(), req.AccountIDs)
	if err != nil {
		s.Logger.Error("Failed to resolve accounts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve accounts"})
		return
	}
	if len(accounts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid accounts found for the provided account_ids"})
		return
	}

	action := geelark.Action{
		Kind:      geelark.ActionPublish,
		MediaURL:  req.MediaURL,
		Caption:   req.Caption,
		MediaKind: kind,
	}
	if req.ScheduleAt > 0 {
		action.ScheduleAt = time.Unix(req.ScheduleAt, 0)
	}

	outcomes := s.Dispatcher.DispatchFanout(c.Request.Context(), action, accounts)
	results, succeeded := outcomeDTOs(outcomes)

	c.JSON(http.StatusOK, gin.H{
		"msg":           "Post scheduling completed",
		"success_count": succeeded,
		"failed_count":  len(results) - succeeded,
		"results":       results,
	})
}

var errUnsupportedMedia = errors.New("Unsupported media type. Must be one of jpg, jpeg, png, mp4, mov")

func mediaKindForURL(mediaURL string) (models.MediaKind, error) {
	parsed, err := url.Parse(mediaURL)
	if err != nil {
		return "", errUnsupportedMedia
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(parsed.Path)), ".")
	kind, ok := models.MediaKindForExtension(ext)
	if !ok {
		return "", errUnsupportedMedia
	}
	return kind, nil
}
