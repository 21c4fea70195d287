package dto

// UpdatePreferencesRequest is a partial update; nil fields keep their
// stored (or default) value.
type UpdatePreferencesRequest struct {
	PushNotifications  *bool    `json:"pushNotifications"`
	EmailNotifications *bool    `json:"emailNotifications"`
	SMSNotifications   *bool    `json:"smsNotifications"`
	Categories         []string `json:"categories" validate:"omitempty,max=32,dive,is-category"`
	RadiusKm           *float64 `json:"radius" validate:"omitempty,gt=0,lte=500"`
}

type PreferencesResponse struct {
	UserID             string   `json:"userId"`
	PushNotifications  bool     `json:"pushNotifications"`
	EmailNotifications bool     `json:"emailNotifications"`
	SMSNotifications   bool     `json:"smsNotifications"`
	Categories         []string `json:"categories"`
	RadiusKm           float64  `json:"radius"`
}
