package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/mediaproxy"
	"github.com/instagrid/instagrid/models"
)

// ProxyImage returns a handler for GET /proxy-image?url=<cdn-url>.
//
// CDN media URLs are signed and CORS-restricted, so the widget cannot load
// them directly from a customer page; this endpoint relays them with a
// long-lived cache header since a signed URL's content never changes.
func ProxyImage(p *mediaproxy.Proxy) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawURL := c.Query("url")
		if rawURL == "" {
			respondError(c, models.NewFeedError(models.ErrCodeInvalidInput,
				"url query parameter is required", nil))
			return
		}

		res, err := p.Fetch(c.Request.Context(), rawURL)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("Cache-Control", "public, max-age=86400, immutable")
		c.Data(http.StatusOK, res.ContentType, res.Body)
	}
}
