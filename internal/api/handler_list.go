package api

import (
	"net/http"
	"strconv"

	"listkeeper/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type ListHandler struct {
	subscriptions *subscription.Service
}

func NewListHandler(subscriptions *subscription.Service) *ListHandler {
	return &ListHandler{subscriptions: subscriptions}
}

// Create handles POST /lists.
func (h *ListHandler) Create(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	list, err := h.subscriptions.CreateList(c.Request.Context(), ownerID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toListResponse(list))
}

// List handles GET /lists. Only the caller's own lists come back.
func (h *ListHandler) List(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	lists, err := h.subscriptions.ListsForOwner(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]mailingListResponse, 0, len(lists))
	for i := range lists {
		out = append(out, toListResponse(&lists[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /lists/:id.
func (h *ListHandler) Get(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	listID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	list, err := h.subscriptions.ListForOwner(c.Request.Context(), ownerID, listID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toListResponse(list))
}

// Delete handles DELETE /lists/:id.
func (h *ListHandler) Delete(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	listID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	if err := h.subscriptions.DeleteList(c.Request.Context(), ownerID, listID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
