package bootstrap

import (
	app "github.com/classops/enrolsync/internal/application/roster"
	"github.com/classops/enrolsync/internal/infrastructure/repository"
	httpecho "github.com/classops/enrolsync/internal/interfaces/http/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

func NewHTTPServer(db *gorm.DB) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("1M"))

	refreshJobRepo := repository.NewRefreshJobRepository(db)
	startRefresh := app.NewStartRosterRefresh(refreshJobRepo)
	refreshHandler := httpecho.NewRefreshHandler(startRefresh)
	getRefreshJob := app.NewGetRefreshJob(refreshJobRepo)
	jobHandler := httpecho.NewJobHandler(getRefreshJob)

	httpecho.RegisterRoutes(server, refreshHandler, jobHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return server
}
