package dto

import "ngo_connect_backend/internal/models"

type PostMediaRequest struct {
	Type      string `json:"type" validate:"omitempty,oneof=image video"`
	URL       string `json:"url" validate:"omitempty,url"`
	Thumbnail string `json:"thumbnail" validate:"omitempty,url"`
}

type CreatePostRequest struct {
	UserID      string           `json:"userId" validate:"max=64"`
	Title       string           `json:"title" validate:"max=200"`
	Description string           `json:"description" validate:"required,max=5000"`
	Category    string           `json:"category" validate:"required,is-category"`
	Media       PostMediaRequest `json:"media"`
	Location    LocationRequest  `json:"location" validate:"required"`
}

// PostResponse is a post together with the notifications it produced, in
// ranked order.
type PostResponse struct {
	Post          *models.Post          `json:"post"`
	Notifications []models.Notification `json:"notifications"`
}
