package http

import "github.com/gin-gonic/gin"

// Register registers the expense routes under /api
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/save-expense", h.SaveExpense)
	rg.GET("/expenses", h.ListExpenses)
	rg.DELETE("/expenses/:id", h.DeleteExpense)
	rg.DELETE("/clear-data", h.ClearData)
	rg.GET("/stats", h.Stats)
}
