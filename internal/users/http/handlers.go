package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kitapunya/expense-backend/internal/auth"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	"github.com/kitapunya/expense-backend/internal/logging"
	"github.com/kitapunya/expense-backend/internal/sheets"
	"github.com/kitapunya/expense-backend/internal/users/service"
)

type Handler struct {
	svc           *service.UserService
	spreadsheetID string
	now           func() time.Time
}

// New builds the account handlers. spreadsheetID is the master spreadsheet
// used to build tab links; it may be empty when Sheets is not configured.
func New(svc *service.UserService, spreadsheetID string) *Handler {
	return &Handler{svc: svc, spreadsheetID: spreadsheetID, now: time.Now}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func failFor(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, auth.ErrIdentityMismatch):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, directory.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, sheets.ErrNotConfigured):
		fail(c, http.StatusServiceUnavailable, "Service not configured")
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback, "details": err.Error()})
	}
}

// emailParam reads an email from the path, tolerating double encoding.
func emailParam(c *gin.Context) string {
	raw := c.Param("email")
	if v, err := url.PathUnescape(raw); err == nil {
		raw = v
	}
	return strings.TrimSpace(raw)
}

// RegisterUser finds or creates the caller's profile.
func (h *Handler) RegisterUser(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	email, err := auth.ResolveEmail(c, body.Email)
	if err != nil {
		failFor(c, err, "Registration failed")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "Email required")
		return
	}
	uid := body.UID
	if uid == "" {
		uid = c.GetString(auth.CtxUID)
	}

	res, err := h.svc.Register(c.Request.Context(), service.RegisterRequest{
		UID:     uid,
		Email:   email,
		Name:    body.Name,
		Picture: body.Picture,
	})
	if errors.Is(err, sheets.ErrNotConfigured) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    gin.H{"uid": uid, "email": email, "name": body.Name, "picture": body.Picture, "isSetupComplete": false},
			"isNew":   true,
		})
		return
	}
	if err != nil {
		logging.New(c.Request.Context()).Error("register_user", err)
		failFor(c, err, "Registration failed")
		return
	}

	resp := gin.H{"success": true, "user": res.User, "isNew": res.IsNew}
	if res.IsNew {
		resp["autoCreated"] = res.AutoCreated
	}
	c.JSON(http.StatusOK, resp)
}

// Setup stores the onboarding answers.
func (h *Handler) Setup(c *gin.Context) {
	var body setupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	email, err := auth.ResolveEmail(c, body.Email)
	if err != nil {
		failFor(c, err, "Setup failed")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "Email required")
		return
	}
	budget, err := parseBudget(body.MonthlyBudget)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	categories := body.Categories
	if categories == nil {
		categories = []string{}
	}

	p, err := h.svc.Setup(c.Request.Context(), email, service.SetupRequest{
		Nickname:      body.Nickname,
		Purpose:       body.Purpose,
		MonthlyBudget: budget,
		Categories:    categories,
	})
	if errors.Is(err, sheets.ErrNotConfigured) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user": gin.H{
				"email": email, "nickname": body.Nickname, "purpose": body.Purpose,
				"monthlyBudget": budget, "categories": categories, "isSetupComplete": true,
			},
		})
		return
	}
	if err != nil {
		logging.New(c.Request.Context()).Error("setup_user", err)
		failFor(c, err, "Setup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": p})
}

func (h *Handler) GetProfile(c *gin.Context) {
	email, err := auth.ResolveEmail(c, emailParam(c))
	if err != nil {
		failFor(c, err, "Failed to get profile")
		return
	}
	p, err := h.svc.Profile(c.Request.Context(), email)
	if err != nil {
		failFor(c, err, "Failed to get profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": p})
}

// UpdateProfile applies a partial update. The collection handle cannot be
// changed through this endpoint.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var body updateProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	email, err := auth.ResolveEmail(c, body.Email)
	if err != nil {
		failFor(c, err, "Failed to update profile")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "Email required")
		return
	}
	upd, err := body.toUpdate()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.svc.UpdateProfile(c.Request.Context(), email, upd)
	if errors.Is(err, sheets.ErrNotConfigured) {
		echo := &directory.UserProfile{Email: email, Categories: []string{}}
		upd.Apply(echo)
		c.JSON(http.StatusOK, gin.H{"success": true, "user": echo})
		return
	}
	if err != nil {
		logging.New(c.Request.Context()).Error("update_profile", err)
		failFor(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": p})
}

// DeleteAccount removes the caller's collection and directory entry.
func (h *Handler) DeleteAccount(c *gin.Context) {
	var body deleteAccountRequest
	_ = c.ShouldBindJSON(&body)
	email, err := auth.ResolveEmail(c, body.Email)
	if err != nil {
		failFor(c, err, "Failed to delete account")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "Email required")
		return
	}

	res, err := h.svc.DeleteAccount(c.Request.Context(), email)
	if err != nil {
		logging.New(c.Request.Context()).Error("delete_account", err)
		failFor(c, err, "Failed to delete account")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account and data deleted successfully",
		"deleted": gin.H{"user": true, "spreadsheet": res.CollectionDeleted},
	})
}

// ExportData returns the caller's data as a downloadable JSON file. The
// file name carries no personal data.
func (h *Handler) ExportData(c *gin.Context) {
	email, err := auth.ResolveEmail(c, emailParam(c))
	if err != nil {
		failFor(c, err, "Failed to export data")
		return
	}

	out, err := h.svc.Export(c.Request.Context(), email)
	if err != nil {
		logging.New(c.Request.Context()).Error("export_data", err)
		failFor(c, err, "Failed to export data")
		return
	}

	name := fmt.Sprintf("expense-data-%s-%s.json",
		h.now().UTC().Format("2006-01-02"),
		strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4]))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.JSON(http.StatusOK, out)
}

// Spreadsheet reports the caller's collection handle and a link to its tab.
func (h *Handler) Spreadsheet(c *gin.Context) {
	email, err := auth.ResolveEmail(c, emailParam(c))
	if err != nil {
		failFor(c, err, "Failed to get spreadsheet")
		return
	}

	info, err := h.svc.Spreadsheet(c.Request.Context(), email)
	if err != nil {
		logging.New(c.Request.Context()).Error("spreadsheet_info", err)
		failFor(c, err, "Failed to get spreadsheet")
		return
	}

	var link interface{}
	if h.spreadsheetID != "" && info.Open {
		link = "https://docs.google.com/spreadsheets/d/" + h.spreadsheetID + "/edit#gid=" + strconv.FormatInt(info.SheetID, 10)
	}
	var handle interface{}
	if info.Handle != "" {
		handle = info.Handle
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "spreadsheetId": handle, "url": link})
}
