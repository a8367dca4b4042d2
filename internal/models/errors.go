package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound        = errors.New("resource not found")
	ErrStoryNotFound   = errors.New("story not found")
	ErrNodeNotFound    = errors.New("story node not found")
	ErrVersionNotFound = errors.New("story version not found")
	ErrUserNotFound    = errors.New("user not found")

	// Structural conflicts (graph invariants). Each cause maps to a
	// different corrective action in the editor UI, so they must stay
	// distinguishable.
	ErrSameTypeConnection    = errors.New("cannot connect nodes of the same type")
	ErrOptionAlreadyLinked   = errors.New("option node is already connected to another node")
	ErrDuplicateConnection   = errors.New("connection already exists")
	ErrRootIncomingEdge      = errors.New("root node cannot have incoming connections")
	ErrConnectionCycle       = errors.New("connection would create a cycle")
	ErrNodeBeingEdited       = errors.New("node has active contributors")
	ErrRootNodeDeletion      = errors.New("root node cannot be deleted")
	ErrGraphCorrupted        = errors.New("graph traversal exceeded node count, data is corrupted")
	ErrDraftAlreadyPublished = errors.New("version is already published")

	// Authorization Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed
	ErrForbidden    = errors.New("forbidden")    // Authenticated, but lacks permission
	ErrNotOwner     = errors.New("only the story owner may perform this action")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenRevoked   = errors.New("token has been revoked")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
