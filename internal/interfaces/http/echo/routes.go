package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, refreshHandler *RefreshHandler, jobHandler *JobHandler) {
	server.POST("/api/v1/courses/:id/refreshes", refreshHandler.StartRefresh)
	server.GET("/api/v1/refreshes/:id", jobHandler.GetRefreshJob)
}
