package model

import "time"

// Subscriber is an email address enrolled in exactly one mailing list.
// Confirmed starts false and flips to true at most once, when the
// subscriber follows the emailed confirmation link.
type Subscriber struct {
	ID            int64
	MailingListID int64
	Email         string
	Confirmed     bool
	CreatedAt     time.Time
}
