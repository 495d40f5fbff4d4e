package api

import (
	"errors"
	"net/http"
	"time"

	"listkeeper/internal/apperr"
	"listkeeper/internal/model"

	"github.com/gin-gonic/gin"
)

// Read-only representations. Subscriber email and list assignment are
// set at creation and never writable through the API, so responses are
// the only shape they ever appear in.

type mailingListResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type subscriberResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Confirmed     bool      `json:"confirmed"`
	MailingListID int64     `json:"mailing_list_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func toListResponse(l *model.MailingList) mailingListResponse {
	return mailingListResponse{ID: l.ID, Name: l.Name, OwnerID: l.OwnerID, CreatedAt: l.CreatedAt}
}

func toSubscriberResponse(s *model.Subscriber) subscriberResponse {
	return subscriberResponse{
		ID:            s.ID,
		Email:         s.Email,
		Confirmed:     s.Confirmed,
		MailingListID: s.MailingListID,
		CreatedAt:     s.CreatedAt,
	}
}

func toSubscriberResponses(subs []model.Subscriber) []subscriberResponse {
	out := make([]subscriberResponse, 0, len(subs))
	for i := range subs {
		out = append(out, toSubscriberResponse(&subs[i]))
	}
	return out
}

// respondError maps the error taxonomy to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired confirmation token"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
