package entity

import "time"

type AuthRequest struct {
	ID          string    `json:"id"`
	InstanceURL string    `json:"instanceUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}
