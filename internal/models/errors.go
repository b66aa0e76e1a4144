package models

import "errors"

// Application-wide standard errors
var (
	// Scene & Story Errors
	ErrSceneNotFound      = errors.New("scene not found")
	ErrSceneAlreadyExists = errors.New("scene with this id already exists")
	ErrInvalidScene       = errors.New("invalid scene data")
	ErrMalformedSceneDoc  = errors.New("malformed scene document")
	ErrNoScenes           = errors.New("no scenes in store")

	// Log Errors
	ErrLogNotFound = errors.New("log entry not found")

	// User & Authentication Errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("forbidden")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found in storage")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
)
