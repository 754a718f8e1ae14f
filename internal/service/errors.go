package service

import "errors"

// ErrInvalidJobID indicates the refresh job ID is not a UUID.
var ErrInvalidJobID = errors.New("invalid job_id")

// ErrNotFound indicates the requested job or fact does not exist.
var ErrNotFound = errors.New("not found")

// ErrInternal indicates an internal server error.
var ErrInternal = errors.New("internal error")

// ErrInternalQueue indicates an internal queue error.
var ErrInternalQueue = errors.New("internal queue error")
