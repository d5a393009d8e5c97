package gateway

import (
	"legalaid-admin/internal/middleware"
	"legalaid-admin/pkg/logger"

	"github.com/gin-gonic/gin"
)

var contentSections = []string{
	"articles", "faqs", "pages", "home", "assistance", "contactus", "links", "abouts",
}

// NewRouter assembles the gateway's HTTP surface: the REST API under /api,
// and the chat websocket at /ws.
func NewRouter(rest *RESTHandler, ws *WSHandler, sessions *SessionService, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.ErrorHandler(log))

	api := r.Group("/api")
	{
		api.POST("/auth/login", rest.Login)
		api.POST("/auth/logout", rest.Logout)

		authed := api.Group("", RequireSession(sessions, log))
		{
			authed.GET("/auth/me", rest.Me)

			authed.GET("/queries", rest.ListQueries)
			authed.POST("/queries", rest.CreateQuery)
			authed.GET("/queries/:id", rest.GetQuery)
			authed.PUT("/queries/:id", rest.UpdateQuery)
			authed.DELETE("/queries/:id", rest.DeleteQuery)

			authed.GET("/user", rest.ListUsers)
			authed.POST("/user", rest.CreateUser)
			authed.PUT("/user/:id", rest.UpdateUser)
			authed.DELETE("/user/:id", rest.DeleteUser)

			authed.GET("/analytics", rest.Analytics)

			for _, section := range contentSections {
				authed.GET("/"+section, rest.ContentList(section))
				authed.POST("/"+section, rest.ContentCreate(section))
				authed.PUT("/"+section+"/:id", rest.ContentUpdate(section))
				authed.DELETE("/"+section+"/:id", rest.ContentDelete(section))
			}
		}
	}

	r.GET("/ws", ws.Connect)
	return r
}
