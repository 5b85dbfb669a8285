package storage

import (
	"context"
	"kidsafe/internal/core"
	"time"
)

// ActivityFilter narrows activity listings. Zero-value fields are ignored.
type ActivityFilter struct {
	From     *time.Time
	To       *time.Time
	Type     string
	Category string
}

// Storage defines the interface for data persistence
type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *core.User) error
	GetUser(ctx context.Context, id string) (*core.User, error)
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)

	// Children
	CreateChild(ctx context.Context, child *core.Child) error
	GetChild(ctx context.Context, id string) (*core.Child, error)
	GetChildByDeviceID(ctx context.Context, deviceID string) (*core.Child, error)
	ListChildren(ctx context.Context) ([]*core.Child, error)
	ListChildrenByParent(ctx context.Context, parentID string) ([]*core.Child, error)
	UpdateChild(ctx context.Context, child *core.Child) error
	DeleteChild(ctx context.Context, id string) error

	// Activities
	CreateActivity(ctx context.Context, activity *core.Activity) error
	CreateActivities(ctx context.Context, activities []*core.Activity) error
	ListActivitiesByChild(ctx context.Context, childID string, filter ActivityFilter) ([]*core.Activity, error)

	// Lifecycle
	Close() error
}
