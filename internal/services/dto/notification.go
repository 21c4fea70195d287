package dto

import "ngo_connect_backend/internal/models"

type UpdateNotificationStatusRequest struct {
	Status          string  `json:"status" validate:"required,is-notification-status"`
	ResponseType    *string `json:"responseType" validate:"omitempty,is-response-type"`
	ResponseMessage *string `json:"responseMessage" validate:"omitempty,max=2000"`
}

type UpdateNotificationStatusResponse struct {
	Success      bool                 `json:"success"`
	Notification *models.Notification `json:"notification"`
}

type PostNotificationsResponse struct {
	PostID        string                `json:"postId"`
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
}
