package services

import (
	"errors"
	"fmt"
	"time"
)

// Coded is implemented by every domain failure; Code is a stable machine-readable identifier.
type Coded interface {
	error
	Code() string
}

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

var (
	ErrProfileNotFound   = &codedError{"not_found", "profile not found"}
	ErrStoreUnavailable  = &codedError{"unavailable", "profile store unavailable"}
	ErrUnknownCareAction = &codedError{"unknown_care_action", "unknown care action"}
	ErrUnknownAccessory  = &codedError{"unknown_accessory", "unknown accessory"}
	ErrSlotMismatch      = &codedError{"slot_mismatch", "accessory does not fit this slot"}
	ErrInvalidSchedule   = &codedError{"invalid_schedule", "invalid reminder schedule"}
	ErrEmptyReflection   = &codedError{"empty_reflection", "reflection response is empty"}
	ErrExportDisabled    = &codedError{"export_disabled", "journal export is not configured"}
)

// CooldownError is returned when a care action is repeated before its cooldown elapsed.
type CooldownError struct {
	Action      string
	AvailableAt time.Time
	Remaining   time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("care action %q on cooldown for another %s", e.Action, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Code() string { return "cooldown" }

// InsufficientPointsError is returned when a spend exceeds the balance.
type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: need %d, have %d", e.Required, e.Available)
}

func (e *InsufficientPointsError) Code() string { return "insufficient_points" }

type AlreadyOwnedError struct {
	AccessoryID string
}

func (e *AlreadyOwnedError) Error() string {
	return fmt.Sprintf("accessory %q already owned", e.AccessoryID)
}

func (e *AlreadyOwnedError) Code() string { return "already_owned" }

type NotOwnedError struct {
	AccessoryID string
}

func (e *NotOwnedError) Error() string {
	return fmt.Sprintf("accessory %q not owned", e.AccessoryID)
}

func (e *NotOwnedError) Code() string { return "not_owned" }

// ErrorCode extracts the code of a domain failure, or "internal".
func ErrorCode(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return "internal"
}
