package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/instagrid/instagrid/graph"
	"github.com/instagrid/instagrid/models"
	"github.com/instagrid/instagrid/store"
)

// ListPages returns a handler for GET /api/pages: the Facebook Pages the
// configured system user can manage, with linked Instagram ids where the
// lookup succeeds.
func ListPages(gc *graph.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		pages, err := gc.ListPages(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PagesResponse{Pages: pages})
	}
}

// AddAccount returns a handler for POST /api/add-instagram-account.
//
// Resolves the Page's linked Instagram Business account and page token and
// registers the combination; the account only becomes usable for feed
// fetches once both resolutions succeed.
func AddAccount(gc *graph.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AddAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewFeedError(models.ErrCodeInvalidInput, "pageId is required", err))
			return
		}

		account, err := gc.ResolveAccount(c.Request.Context(), req.PageID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.AccountResponse{
			Message: "Instagram account added successfully",
			Account: account.View(),
		})
	}
}

// ListAccounts returns a handler for GET /api/instagram-accounts. Tokens
// never leave the store.
func ListAccounts(accounts *store.AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		all := accounts.List()
		views := make([]models.AccountView, 0, len(all))
		for _, a := range all {
			views = append(views, a.View())
		}
		c.JSON(http.StatusOK, models.AccountsResponse{Accounts: views})
	}
}

// DeleteAccount returns a handler for DELETE /api/instagram-accounts/:pageId.
func DeleteAccount(accounts *store.AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		pageID := c.Param("pageId")
		if !accounts.Delete(pageID) {
			respondError(c, models.NewFeedError(models.ErrCodeAccountNotFound,
				"no account registered for this page", nil))
			return
		}
		c.JSON(http.StatusOK, models.RemovedResponse{
			Message: "Instagram account removed",
			PageID:  pageID,
		})
	}
}

// RefreshPageToken returns a handler for POST /api/refresh-page-token.
func RefreshPageToken(gc *graph.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AddAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewFeedError(models.ErrCodeInvalidInput, "pageId is required", err))
			return
		}

		account, err := gc.RefreshToken(c.Request.Context(), req.PageID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.AccountResponse{
			Message: "page token refreshed",
			Account: account.View(),
		})
	}
}

// DebugPage returns a handler for GET /api/debug/page/:pageId, which passes
// an arbitrary field list straight to the Graph API. Only routed outside
// release mode.
func DebugPage(gc *graph.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := gc.DebugPage(c.Request.Context(), c.Param("pageId"), c.Query("fields"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, raw)
	}
}
