package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultDailyLimit is the screen-time limit (in minutes) assigned to a
// child profile when the parent doesn't specify one. Two hours.
const DefaultDailyLimit = 120

// CategoryOther is the bucket for activities recorded without a category.
const CategoryOther = "other"

// Activity types reported by child devices
const (
	ActivityTypeApp     = "app"
	ActivityTypeWebsite = "website"
	ActivityTypeGame    = "game"
	ActivityTypeVideo   = "video"
)

// User represents a parent account
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash, never exposed in responses
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Child represents a monitored child profile owned by a parent
type Child struct {
	ID              string
	ParentID        string
	Name            string
	DeviceID        string // unique identifier of the child's device
	DailyLimit      int    // minutes per calendar day
	BlockedWebsites []string
	Avatar          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Activity is one logged instance of a child interacting with an
// app/site/content for a duration. Created once by the ingestion path
// and never mutated afterwards.
type Activity struct {
	ID           string
	ChildID      string
	Type         string // "app", "website", "game", etc.
	Name         string // name of the app, website, etc.
	URL          string // for websites
	Category     string // optional; empty values aggregate as "other"
	Duration     int    // minutes
	IsRestricted bool
	IsBlocked    bool
	Timestamp    time.Time
	CreatedAt    time.Time
}

// Validation errors
var (
	ErrInvalidName         = errors.New("name cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidDailyLimit   = errors.New("daily limit must be positive")
	ErrInvalidDuration     = errors.New("duration must not be negative")
	ErrInvalidActivityType = errors.New("activity type cannot be empty")
	ErrInvalidChildID      = errors.New("invalid child ID")
	ErrUserNotFound        = errors.New("user not found")
	ErrChildNotFound       = errors.New("child not found")
	ErrEmailInUse          = errors.New("email is already in use")
	ErrDeviceIDInUse       = errors.New("device ID is already in use")
)

// Validate validates a User
func (u *User) Validate() error {
	if u.Name == "" {
		return ErrInvalidName
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Validate validates a Child
func (c *Child) Validate() error {
	if c.Name == "" {
		return ErrInvalidName
	}
	if c.DailyLimit <= 0 {
		return ErrInvalidDailyLimit
	}
	return nil
}

// Validate validates an Activity
func (a *Activity) Validate() error {
	if a.ChildID == "" {
		return ErrInvalidChildID
	}
	if a.Type == "" {
		return ErrInvalidActivityType
	}
	if a.Name == "" {
		return ErrInvalidName
	}
	if a.Duration < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// CategoryOrOther returns the activity's category, substituting "other"
// when the device didn't report one.
func (a *Activity) CategoryOrOther() string {
	if a.Category == "" {
		return CategoryOther
	}
	return a.Category
}
