package blog

import "errors"

// Sentinel errors.
var (
	// ErrValidation is returned when a required field is blank.
	ErrValidation = errors.New("blog: title and content are required")

	// ErrNotAuthenticated is returned when an operation needs an acting
	// user and none is present.
	ErrNotAuthenticated = errors.New("blog: not authenticated")

	// ErrNotOwner is returned when an update matches no row owned by the
	// acting user: either the post does not exist or it belongs to
	// someone else. The two cases are indistinguishable on purpose.
	ErrNotOwner = errors.New("blog: post not found or not owned by you")
)
