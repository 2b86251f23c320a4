package assignment

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyAssigned    = errors.New("report already assigned")
	ErrOfficerUnavailable = errors.New("officer unavailable")
	ErrOfficerAtCapacity  = errors.New("officer at capacity")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrMalformedRecord    = errors.New("malformed record")
)

type kindInfo struct {
	err     error
	code    string
	status  int
	message string
}

// Order matters: the first sentinel an error wraps decides its kind.
var kinds = []kindInfo{
	{ErrInvalidArgument, "invalid_argument", http.StatusBadRequest, "Invalid or missing identifier or filter"},
	{ErrNotFound, "not_found", http.StatusNotFound, "Report or officer not found"},
	{ErrAlreadyAssigned, "already_assigned", http.StatusConflict, "This case has already been assigned, pick another report"},
	{ErrOfficerAtCapacity, "officer_at_capacity", http.StatusConflict, "Officer has reached their case capacity"},
	{ErrOfficerUnavailable, "officer_unavailable", http.StatusConflict, "Officer is not available"},
	{ErrStoreUnavailable, "store_unavailable", http.StatusServiceUnavailable, "Service temporarily unavailable, please retry"},
	{ErrMalformedRecord, "store_error", http.StatusInternalServerError, "Stored record is invalid"},
}

var unknownKind = kindInfo{code: "store_error", status: http.StatusInternalServerError, message: "Failed to assign case"}

func lookup(err error) kindInfo {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k
		}
	}
	return unknownKind
}

// Kind returns the machine-readable error code for err.
func Kind(err error) string { return lookup(err).code }

func HTTPStatus(err error) int { return lookup(err).status }

// Message is the short text shown to dashboard users.
func Message(err error) string { return lookup(err).message }

// Retryable reports whether a blind retry of the same call may succeed.
func Retryable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }
