package http

import "github.com/gin-gonic/gin"

// Register registers the account routes under /api
func (h *Handler) Register(rg *gin.RouterGroup) {
	user := rg.Group("/user")
	{
		user.POST("/register", h.RegisterUser)
		user.POST("/setup", h.Setup)
		user.GET("/profile/:email", h.GetProfile)
		user.PUT("/profile", h.UpdateProfile)
		user.DELETE("/delete-account", h.DeleteAccount)
		user.GET("/export-data/:email", h.ExportData)
		user.GET("/spreadsheet/:email", h.Spreadsheet)
	}

	// legacy paths used by older frontends
	rg.DELETE("/delete-account", h.DeleteAccount)
	rg.GET("/export-data/:email", h.ExportData)
}
