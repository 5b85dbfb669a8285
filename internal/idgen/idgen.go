package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different models
const (
	PrefixUser     = "usr_"
	PrefixChild    = "kid_"
	PrefixActivity = "act_"
)

// NewUser generates a new user ID with usr_ prefix
func NewUser() string {
	return PrefixUser + uuid.New().String()
}

// NewChild generates a new child ID with kid_ prefix
func NewChild() string {
	return PrefixChild + uuid.New().String()
}

// NewActivity generates a new activity ID with act_ prefix
func NewActivity() string {
	return PrefixActivity + uuid.New().String()
}

// NewDeviceID generates a device identifier for a child profile created
// without one.
func NewDeviceID() string {
	return "device-" + uuid.New().String()[:8]
}

// New generates a generic UUID without prefix (for internal use only)
func New() string {
	return uuid.New().String()
}
