package bootstrap

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httpapi "github.com/kitapunya/expense-backend/internal/api/http"
	"github.com/kitapunya/expense-backend/internal/api/http/middleware"
	"github.com/kitapunya/expense-backend/internal/auth"
	authmw "github.com/kitapunya/expense-backend/internal/auth/middleware"
	expenseshttp "github.com/kitapunya/expense-backend/internal/expenses/http"
	usershttp "github.com/kitapunya/expense-backend/internal/users/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	SpreadsheetID  string
	Configured     bool
	Services       *Services
	Stat           httpapi.MasterStat
	Verifier       auth.Verifier
	Metrics        http.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware(dep.AllowedOrigins))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Configured, dep.Stat, dep.Services.Resolver.CacheName())
	healthHandler.RegisterRoutes(r)

	if dep.Metrics != nil {
		r.GET("/metrics", gin.WrapH(dep.Metrics))
	}

	api := r.Group("/api")
	api.Use(authmw.OptionalIdentity(dep.Verifier))

	usershttp.New(dep.Services.Users, dep.SpreadsheetID).Register(api)
	expenseshttp.New(dep.Services.Expenses).Register(api)

	return r
}
