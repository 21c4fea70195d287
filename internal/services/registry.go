package services

// ServiceContainer holds every application service.
type ServiceContainer struct {
	MatchingService   MatchingService
	PostService       PostService
	PreferenceService PreferenceService
}
