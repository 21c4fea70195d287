package apperrors

import (
	"net/http"
)

// ErrInvalidLocation is returned when coordinates are missing, not finite or
// outside the WGS84 range. Details carry the offending field.
var ErrInvalidLocation = New(
	CodeInvalidLocation,
	"geo",
	"Latitude must be within [-90, 90] and longitude within [-180, 180]",
	http.StatusBadRequest,
)

// ErrNotificationNotFound is returned when a status update targets an unknown id.
var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

var ErrNGONotFound = New(
	CodeNotFound,
	"ngo",
	"NGO not found",
	http.StatusNotFound,
)

var ErrPostNotFound = New(
	CodeNotFound,
	"post",
	"Post not found",
	http.StatusNotFound,
)

// ErrInvalidTransition is returned for a backward status move (read -> sent,
// responded -> read, ...).
var ErrInvalidTransition = New(
	CodeInvalidTransition,
	"notification",
	"Notification status can only move forward: sent -> read -> responded",
	http.StatusConflict,
)

// ErrConcurrentUpdate is returned when optimistic retries for one notification
// are exhausted.
var ErrConcurrentUpdate = New(
	CodeConflict,
	"notification",
	"Notification was modified concurrently, retry the request",
	http.StatusConflict,
)

// UpstreamUnavailable wraps a failure of the catalog provider, the store or a
// delivery channel. The original error is kept for the caller's retry policy.
func UpstreamUnavailable(err error, upstream string) *AppError {
	return Wrap(err, CodeUpstreamUnavailable, upstream, "Upstream dependency unavailable: "+upstream, http.StatusServiceUnavailable)
}

var ErrRateLimited = New(
	CodeLimitExceeded,
	"request",
	"Too many requests",
	http.StatusTooManyRequests,
)
