package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kitapunya/expense-backend/internal/auth"
	collections "github.com/kitapunya/expense-backend/internal/collections/domain"
	directory "github.com/kitapunya/expense-backend/internal/directory/domain"
	"github.com/kitapunya/expense-backend/internal/expenses/domain"
	"github.com/kitapunya/expense-backend/internal/expenses/service"
	"github.com/kitapunya/expense-backend/internal/logging"
	"github.com/kitapunya/expense-backend/internal/sheets"
)

type Handler struct {
	svc *service.ExpenseService
}

func New(svc *service.ExpenseService) *Handler {
	return &Handler{svc: svc}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// failFor maps service errors onto HTTP statuses.
func failFor(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidExpense):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrIdentityMismatch):
		fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, directory.ErrUserNotFound):
		fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrRecordNotFound):
		fail(c, http.StatusNotFound, "Expense not found")
	case errors.Is(err, sheets.ErrNotConfigured):
		fail(c, http.StatusServiceUnavailable, "Google Sheets service not configured")
	case errors.Is(err, collections.ErrProvisioningFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback, "details": "could not create personal spreadsheet"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": fallback, "details": err.Error()})
	}
}

func toResponse(r *domain.ExpenseRecord) expenseResponse {
	return expenseResponse{
		ID:        r.ID,
		Toko:      r.Toko,
		Kategori:  r.Kategori,
		Total:     r.Total,
		Tanggal:   r.Tanggal,
		Alamat:    r.Alamat,
		Catatan:   r.Catatan,
		Filename:  r.Filename,
		HasPhoto:  r.HasPhoto(),
		Timestamp: r.Timestamp,
		Base64:    r.Base64,
	}
}

// SaveExpense stores a new expense in the caller's collection.
func (h *Handler) SaveExpense(c *gin.Context) {
	var body saveExpenseRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Toko) == "" || strings.TrimSpace(body.Kategori) == "" || !body.Total.Set || strings.TrimSpace(body.Tanggal) == "" {
		fail(c, http.StatusBadRequest, "Missing required fields: toko, kategori, total, tanggal")
		return
	}

	email, err := auth.ResolveEmail(c, body.UserEmail)
	if err != nil {
		failFor(c, err, "Failed to save expense")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "User email required for personal spreadsheet")
		return
	}

	rec, err := h.svc.Save(c.Request.Context(), service.SaveRequest{
		NewExpense: domain.NewExpense{
			Toko:     body.Toko,
			Kategori: body.Kategori,
			Total:    body.Total.Value,
			Tanggal:  body.Tanggal,
			Alamat:   body.Alamat,
			Catatan:  body.Catatan,
		},
		Filename:  body.Filename,
		PhotoData: body.PhotoData,
		UserEmail: email,
		UserName:  body.UserName,
	})
	if err != nil {
		logging.New(c.Request.Context()).Error("save_expense", err)
		failFor(c, err, "Failed to save expense")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Expense saved",
		"expense": toResponse(rec),
	})
}

// ListExpenses returns the caller's expenses. Read failures degrade to an
// empty list with a warning so the dashboard keeps rendering.
func (h *Handler) ListExpenses(c *gin.Context) {
	email, err := auth.ResolveEmail(c, c.Query("userEmail"))
	if err != nil {
		failFor(c, err, "Failed to load expenses")
		return
	}
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "User email required", "expenses": []domain.ExpenseRecord{}})
		return
	}

	listing := h.svc.List(c.Request.Context(), email, c.Query("userName"))
	if listing.Unavailable {
		warning := "Failed to load from personal spreadsheet"
		if errors.Is(listing.Err, sheets.ErrNotConfigured) {
			warning = "Sheets service not configured"
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "expenses": []domain.ExpenseRecord{}, "warning": warning})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "expenses": listing.Records})
}

// DeleteExpense removes one expense by id.
func (h *Handler) DeleteExpense(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, "expense id is required")
		return
	}
	email, err := auth.ResolveEmail(c, c.Query("userEmail"))
	if err != nil {
		failFor(c, err, "Failed to delete expense")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "User email required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), email, id); err != nil {
		logging.New(c.Request.Context()).Error("delete_expense", err)
		failFor(c, err, "Failed to delete expense")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Expense deleted", "id": id})
}

// ClearData deletes every expense but keeps the user's collection.
func (h *Handler) ClearData(c *gin.Context) {
	var body clearDataRequest
	_ = c.ShouldBindJSON(&body)
	email, err := auth.ResolveEmail(c, body.Email)
	if err != nil {
		failFor(c, err, "Failed to clear data")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "Email required")
		return
	}

	n, err := h.svc.Clear(c.Request.Context(), email)
	if err != nil {
		logging.New(c.Request.Context()).Error("clear_data", err)
		failFor(c, err, "Failed to clear data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All expenses deleted", "deleted": n})
}

// Stats returns the current month's totals.
func (h *Handler) Stats(c *gin.Context) {
	email, err := auth.ResolveEmail(c, c.Query("userEmail"))
	if err != nil {
		failFor(c, err, "Failed to load stats")
		return
	}
	if email == "" {
		fail(c, http.StatusBadRequest, "User email required")
		return
	}

	st, err := h.svc.Stats(c.Request.Context(), email)
	resp := gin.H{
		"success":        true,
		"monthlyTotal":   st.MonthlyTotal,
		"categoryTotals": st.CategoryTotals,
		"currentMonth":   st.CurrentMonth,
		"currentYear":    st.CurrentYear,
	}
	if err != nil {
		resp["warning"] = "Failed to load from personal spreadsheet"
	}
	c.JSON(http.StatusOK, resp)
}
