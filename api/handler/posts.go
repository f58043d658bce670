package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/graph"
	"github.com/instagrid/instagrid/models"
)

// Posts returns a handler for GET /api/instagram-posts/:instagramId.
//
// Query parameters:
//
//	limit  page size (optional, default 8)
//	after  opaque cursor from a previous response (optional)
//
// paging.next_cursor is null when the feed is exhausted, which is the
// widget's signal to stop paginating.
func Posts(gc *graph.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		instagramID := c.Param("instagramId")

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				respondError(c, models.NewFeedError(models.ErrCodeInvalidInput,
					"limit must be a positive integer", err))
				return
			}
			limit = parsed
		}

		posts, nextCursor, err := gc.FetchPosts(c.Request.Context(), instagramID, limit, c.Query("after"))
		if err != nil {
			respondError(c, err)
			return
		}

		resp := models.PostsResponse{Data: posts}
		if nextCursor != "" {
			resp.Paging.NextCursor = &nextCursor
		}
		c.JSON(http.StatusOK, resp)
	}
}
