package model

import "time"

type MailingList struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}
