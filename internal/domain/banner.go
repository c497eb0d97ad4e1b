package domain

import "time"

type Banner struct {
	ID         int32     `json:"id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	StorageKey string    `json:"-"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	IsActive   bool      `json:"is_active"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

type Rating struct {
	ID        int32     `json:"id"`
	UserID    int32     `json:"user_id"`
	Stars     int32     `json:"stars"`
	Comment   string    `json:"comment"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}
