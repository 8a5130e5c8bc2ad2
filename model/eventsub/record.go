package eventsub

import (
	"time"
)

// Record is a subscription entry as the remote registry reports it.
type Record struct {
	Id        string         `json:"id"`
	Status    Status         `json:"status"`
	Type      string         `json:"type"`
	Version   string         `json:"version"`
	Cost      int            `json:"cost"`
	Condition map[string]any `json:"condition"`
	CreatedAt time.Time      `json:"created_at"`
	Transport Transport      `json:"transport"`
}

// CreateRequest is the payload of the remote create subscription call.
type CreateRequest struct {
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Condition map[string]string `json:"condition"`
	Transport TransportOptions  `json:"transport"`
}
