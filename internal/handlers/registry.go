package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	PostHandler         *PostHandler
	NGOHandler          *NGOHandler
	NotificationHandler *NotificationHandler
	PreferenceHandler   *PreferenceHandler
}
