package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/unilak/community/internal/config"
	"github.com/unilak/community/internal/handlers"
	"github.com/unilak/community/internal/middleware"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Account      *handlers.AccountHandler
	Health       *handlers.HealthHandler
	Pages        *handlers.PagesHandler
	Review       *handlers.ReviewHandler
	Moderation   *handlers.ModerationHandler
	Announcement *handlers.AnnouncementHandler
	Thread       *handlers.ThreadHandler
	Community    *handlers.CommunityHandler
	Realtime     *handlers.RealtimeHandler
}

func perIP(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(perIP(120))

	protected := middleware.JWTProtected(cfg, db)
	optional := middleware.OptionalAuth(cfg, db)

	api.Get("/health", h.Health.Check)
	api.Get("/pages/rules", h.Pages.Rules)
	api.Get("/pages/privacy", h.Pages.Privacy)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth", perIP(10))
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", h.Auth.Logout)

	account := api.Group("/account", protected)
	account.Get("/", h.Account.Get)
	account.Patch("/", h.Account.Update)
	account.Delete("/", h.Account.Delete)
	account.Get("/reviews", h.Review.Mine)

	api.Get("/topics", h.Review.Topics)
	api.Get("/topics/:id/subtopics", h.Review.Subtopics)

	// Stats before :id so it is not read as an id.
	api.Get("/reviews", h.Review.List)
	api.Get("/reviews/stats", h.Review.Stats)
	api.Get("/reviews/:id", h.Review.Get)
	api.Post("/reviews", protected, h.Review.Create)
	api.Patch("/reviews/:id", protected, h.Review.Update)
	api.Delete("/reviews/:id", protected, h.Review.Delete)
	api.Post("/reviews/:id/reports", protected, h.Moderation.CreateReport)
	api.Get("/reports/reasons", h.Moderation.ReportReasons)

	api.Get("/announcements", h.Announcement.List)
	api.Post("/announcements/requests", protected, h.Announcement.Submit)
	api.Get("/announcements/requests/mine", protected, h.Announcement.Mine)
	api.Delete("/announcements/requests/:id", protected, h.Announcement.DeleteRequest)

	threads := api.Group("/threads")
	threads.Get("/requests/:id", protected, h.Thread.RequestThread)
	threads.Post("/requests/:id/messages", protected, h.Thread.PostToRequest)
	threads.Get("/announcements/:id", optional, h.Thread.AnnouncementThread)
	threads.Post("/announcements/:id/messages", optional, h.Thread.PostToAnnouncement)
	threads.Delete("/messages/:id", protected, h.Thread.DeleteMessage)

	api.Get("/facts", h.Community.Facts)
	api.Post("/feedback", perIP(10), h.Community.SubmitFeedback)

	api.Get("/realtime", optional, h.Realtime.Upgrade, h.Realtime.Stream())

	mod := api.Group("/moderator", protected, middleware.ModeratorRequired(cfg))
	mod.Get("/dashboard", h.Moderation.Dashboard)

	mod.Get("/requests", h.Announcement.ListRequests)
	mod.Patch("/requests/:id", h.Announcement.EditRequest)
	mod.Post("/requests/:id/approve", h.Announcement.Approve)
	mod.Post("/requests/:id/reject", h.Announcement.Reject)
	mod.Delete("/requests/:id", h.Announcement.DeleteRequest)

	mod.Get("/reviews", h.Review.List)
	mod.Delete("/reviews/:id", h.Review.Delete)
	mod.Post("/topics", h.Review.CreateTopic)
	mod.Post("/topics/:id/subtopics", h.Review.CreateSubtopic)

	mod.Get("/users", h.Account.ListUsers)

	mod.Get("/feedback", h.Community.ListFeedback)
	mod.Delete("/feedback/:id", h.Community.DeleteFeedback)

	mod.Get("/reports", h.Moderation.ListReports)
	mod.Post("/reports/:id/dismiss", h.Moderation.DismissReport)
	mod.Post("/reports/:id/delete-review", h.Moderation.DeleteReportedReview)

	mod.Get("/facts", h.Community.AdminFacts)
	mod.Post("/facts", h.Community.CreateFact)
	mod.Patch("/facts/:id", h.Community.UpdateFact)
	mod.Delete("/facts/:id", h.Community.DeleteFact)
}
