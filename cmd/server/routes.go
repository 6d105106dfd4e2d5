package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/config"
	"github.com/campus-clubs/backend/internal/announcements"
	"github.com/campus-clubs/backend/internal/auth"
	"github.com/campus-clubs/backend/internal/clubs"
	"github.com/campus-clubs/backend/internal/console"
	"github.com/campus-clubs/backend/internal/events"
	"github.com/campus-clubs/backend/internal/gallery"
	"github.com/campus-clubs/backend/internal/members"
	"github.com/campus-clubs/backend/internal/messages"
	"github.com/campus-clubs/backend/internal/middleware"
	"github.com/campus-clubs/backend/pkg/response"
)

// handlers groups everything the router mounts.
type handlers struct {
	auth          *auth.Handler
	clubs         *clubs.Handler
	members       *members.Handler
	events        *events.Handler
	announcements *announcements.Handler
	messages      *messages.Handler
	console       *console.Handler
	gallery       *gallery.Handler
	health        gin.HandlerFunc
	ws            gin.HandlerFunc
}

func newRouter(cfg *config.Config, h handlers, tokens middleware.TokenValidator, limiter middleware.WindowCounter, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("panic recovered", zap.Any("error", err), zap.String("path", c.Request.URL.Path))
		response.Internal(c)
		c.Abort()
	}))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.NoRoute(func(c *gin.Context) { response.NotFound(c, "Route not found") })

	strict := middleware.RateLimit(limiter, "strict", cfg.RateLimit.StrictMax, cfg.RateLimit.StrictWindow, logger)
	jwt := middleware.JWT(tokens)
	authorityOnly := middleware.RequireAuthority()
	memberOnly := middleware.RequireMember()

	api := router.Group("/api")
	api.GET("/health", h.health)
	api.GET("/ws", h.ws)

	// Public
	api.POST("/login", strict, h.auth.MemberLogin)
	api.POST("/club_members/login", strict, h.auth.MemberLogin)
	api.POST("/authority/login", strict, h.auth.AuthorityLogin)
	api.POST("/auth/request-reset", strict, h.auth.RequestReset)
	api.POST("/auth/reset-password", strict, h.auth.ResetPassword)
	api.POST("/users/register", strict, h.members.Register)

	api.GET("/clubs", h.clubs.List)
	api.GET("/clubs/:clubId", h.clubs.Get)
	api.GET("/clubs/:clubId/details", h.clubs.Details)
	api.GET("/clubs/:clubId/executive-committee/view", h.members.ExecutiveView)
	api.GET("/events", h.events.List)
	api.GET("/events/upcoming", h.events.Upcoming)
	api.GET("/events/:eventId", h.events.Get)
	api.GET("/gallery", h.gallery.List)
	api.GET("/authority/announcements/public", h.announcements.Public)

	// Any authenticated principal
	authed := api.Group("", jwt)
	{
		authed.PUT("/clubs/:clubId", h.clubs.Update)
		authed.GET("/clubs/:clubId/members", h.members.Roster)
		authed.PUT("/clubs/:clubId/members/positions", h.members.UpdatePositions)
		authed.GET("/clubs/:clubId/members/export", h.members.ExportRoster)
		authed.GET("/clubs/:clubId/requests", h.members.ListRequests)
		authed.POST("/requests/:id/approve", h.members.Approve)
		authed.POST("/requests/:id/reject", h.members.Reject)
		authed.PUT("/members/:memberId/role", h.members.ChangeRole)
		authed.DELETE("/members/:memberId", h.members.Remove)

		authed.GET("/users/:id", h.members.GetUser)
		authed.GET("/profile/:id", h.members.GetUser)
		authed.PUT("/users/:id", h.members.UpdateUser)
		authed.POST("/users/:id/photo", h.members.UploadPhoto)

		authed.POST("/clubs/:clubId/events", h.events.Create)
		authed.GET("/clubs/:clubId/events", h.events.ListByClub)
		authed.GET("/events/:eventId/registrations", h.events.Registrations)
		authed.GET("/events/:eventId/registrations/export", h.events.ExportRegistrations)

		authed.GET("/announcements", h.announcements.ListClub)
		authed.GET("/announcements/feed", h.announcements.Feed)
		authed.PUT("/announcements/:id", h.announcements.UpdateClub)
		authed.DELETE("/announcements/:id", h.announcements.DeleteClub)

		authed.POST("/gallery", h.gallery.Upload)
		authed.DELETE("/gallery/:id", h.gallery.Delete)
	}

	// Club members
	member := api.Group("", jwt, memberOnly)
	{
		member.GET("/me", h.members.Me)
		member.POST("/users/update-password", h.auth.UpdatePassword)
		member.POST("/events/:eventId/register", h.events.Register)
		member.DELETE("/events/:eventId/register", h.events.Unregister)
		member.GET("/registrations/my", h.events.MyRegistrations)
		member.POST("/announcements", h.announcements.CreateClub)

		member.GET("/messages/conversations/:userId", h.messages.Conversations)
		member.GET("/messages/conversation/:userId/:partnerId", h.messages.Conversation)
		member.GET("/messages/unread-count/:userId", h.messages.UnreadCount)
		member.POST("/messages", h.messages.Send)
	}

	// Authorities
	authority := api.Group("", jwt, authorityOnly)
	{
		authority.POST("/authority/clubs/create", h.clubs.Create)
		authority.GET("/authority/clubs", h.console.Clubs)
		authority.PUT("/authority/clubs/:clubId", h.clubs.Update)
		authority.DELETE("/authority/clubs/:clubId", h.clubs.Delete)
		authority.GET("/authority/dashboard/stats", h.console.Stats)
		authority.GET("/authority/profile", h.console.Profile)
		authority.GET("/members/count", h.console.MemberCount)

		authority.POST("/authority/announcements", h.announcements.CreateAdmin)
		authority.GET("/authority/announcements", h.announcements.ListAdmin)
		authority.PUT("/authority/announcements/:id", h.announcements.UpdateAdmin)
		authority.DELETE("/authority/announcements/:id", h.announcements.DeleteAdmin)
	}

	return router
}
