package api

import (
	"errors"
	"net/http"

	"listkeeper/internal/apperr"
	"listkeeper/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriberHandler struct {
	subscriptions *subscription.Service
}

func NewSubscriberHandler(subscriptions *subscription.Service) *SubscriberHandler {
	return &SubscriberHandler{subscriptions: subscriptions}
}

// Subscribe handles POST /lists/:id/subscribers. Public: signing up takes
// no account. Only the email is client-settable; confirmation state and
// list assignment are not.
func (h *SubscriberHandler) Subscribe(c *gin.Context) {
	listID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sub, err := h.subscriptions.CreateSubscriber(c.Request.Context(), listID, req.Email)
	if err != nil {
		var schedErr *apperr.DispatchSchedulingError
		if errors.As(err, &schedErr) {
			// The subscriber exists; only the notification is missing.
			c.JSON(http.StatusAccepted, gin.H{
				"subscriber": toSubscriberResponse(sub),
				"warning":    "confirmation email could not be scheduled",
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSubscriberResponse(sub))
}

// Confirm handles GET /confirm?token=... — the link from the email.
func (h *SubscriberHandler) Confirm(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	sub, err := h.subscriptions.ConfirmSubscriber(c.Request.Context(), tokenStr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubscriberResponse(sub))
}

// ListForMailingList handles GET /lists/:id/subscribers. Owner-scoped;
// ?confirmed=true narrows to confirmed subscribers.
func (h *SubscriberHandler) ListForMailingList(c *gin.Context) {
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

	confirmedOnly := c.Query("confirmed") == "true"
	subs, err := h.subscriptions.SubscribersForList(c.Request.Context(), ownerID, listID, confirmedOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubscriberResponses(subs))
}

// Get handles GET /subscribers/:id, owner-scoped.
func (h *SubscriberHandler) Get(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	subscriberID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscriber id"})
		return
	}

	sub, err := h.subscriptions.SubscriberForOwner(c.Request.Context(), ownerID, subscriberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubscriberResponse(sub))
}

// Delete handles DELETE /subscribers/:id, owner-scoped.
func (h *SubscriberHandler) Delete(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	subscriberID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscriber id"})
		return
	}

	if err := h.subscriptions.DeleteSubscriber(c.Request.Context(), ownerID, subscriberID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
