package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/api/handler"
	"github.com/instagrid/instagrid/api/middleware"
	"github.com/instagrid/instagrid/config"
	"github.com/instagrid/instagrid/graph"
	"github.com/instagrid/instagrid/mediaproxy"
	"github.com/instagrid/instagrid/store"
)

// Scraper is the scraping dependency the router wires into handlers.
// *scraper.Scraper satisfies it; tests pass a stub.
type Scraper interface {
	handler.ProfileScraper
	handler.PoolReporter
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if keys configured) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always
// work. /proxy-image sits outside the /api group because the widget embeds
// it directly in <img src>, but it still carries the rate limiter.
func NewRouter(
	sc Scraper,
	gc *graph.Client,
	proxy *mediaproxy.Proxy,
	accounts *store.AccountStore,
	sessions *store.SessionStore,
	cfg *config.Config,
	startTime time.Time,
) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	rateLimit := middleware.RateLimit(cfg.RateLimit)

	// Health — no auth required.
	r.GET("/api/health", handler.Health(sc, startTime))

	// Media proxy — referenced straight from <img> tags, so no API key.
	r.GET("/proxy-image", rateLimit, handler.ProxyImage(proxy))

	protected := r.Group("/api")
	protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	protected.Use(rateLimit)

	// Graph API path: account management and feed fetch.
	protected.GET("/pages", handler.ListPages(gc))
	protected.POST("/add-instagram-account", handler.AddAccount(gc))
	protected.GET("/instagram-accounts", handler.ListAccounts(accounts))
	protected.DELETE("/instagram-accounts/:pageId", handler.DeleteAccount(accounts))
	protected.POST("/refresh-page-token", handler.RefreshPageToken(gc))
	protected.GET("/instagram-posts/:instagramId", handler.Posts(gc))

	// Scraping fallback path.
	protected.POST("/login", handler.Login(sc, sessions))
	protected.POST("/public-profile", handler.PublicProfile(sc))
	protected.POST("/refresh", handler.Refresh(sc, sessions))

	if cfg.Server.Mode != gin.ReleaseMode {
		protected.GET("/debug/page/:pageId", handler.DebugPage(gc))
	}

	return r
}
