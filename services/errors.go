// services/errors.go
package services

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindRateLimit
	KindNotFound
	KindConflict
	KindUpstream
	KindStorage
)

// RewardError carries the message shown to the caller and the HTTP status class.
type RewardError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RewardError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *RewardError) Unwrap() error { return e.Err }

// Status maps the kind onto an HTTP status code.
func (e *RewardError) Status() int {
	switch e.Kind {
	case KindRateLimit:
		return fiber.StatusTooManyRequests
	case KindNotFound:
		return fiber.StatusNotFound
	case KindStorage:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

func validationErr(msg string) error { return &RewardError{Kind: KindValidation, Message: msg} }
func conflictErr(msg string) error   { return &RewardError{Kind: KindConflict, Message: msg} }
func notFoundErr(msg string) error   { return &RewardError{Kind: KindNotFound, Message: msg} }

func upstreamErr(msg string, err error) error {
	return &RewardError{Kind: KindUpstream, Message: msg, Err: err}
}

func storageErr(msg string, err error) error {
	return &RewardError{Kind: KindStorage, Message: msg, Err: err}
}

var (
	ErrUserNotFound    = notFoundErr("User not found")
	ErrInvalidWallet   = validationErr("Invalid wallet address")
	ErrInvalidTweetURL = validationErr("Invalid Twitter/X URL format")
	ErrUnknownTask     = validationErr("Unknown task")
	ErrRitualDone      = conflictErr("Ritual already completed today")
	ErrTaskDone        = conflictErr("Task already completed")
	ErrTweetUsed       = conflictErr("This tweet was already used for verification")
	ErrNoFreeSpins     = validationErr("No free spins available")
	ErrNotEnoughPoints = validationErr("Not enough points for a spin")
	ErrTwitterTaken    = conflictErr("This Twitter account is already linked to another wallet")
	ErrTwitterVerified = conflictErr("Twitter account already verified")
)

// isDuplicate recognises unique-index violations from every driver we run on.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
