package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr error
	}{
		{
			name: "valid user",
			user: User{Name: "Alice", Email: "alice@example.com"},
		},
		{
			name:    "empty name",
			user:    User{Email: "alice@example.com"},
			wantErr: ErrInvalidName,
		},
		{
			name:    "invalid email",
			user:    User{Name: "Alice", Email: "not-an-email"},
			wantErr: ErrInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChildValidate(t *testing.T) {
	tests := []struct {
		name    string
		child   Child
		wantErr error
	}{
		{
			name:  "valid child",
			child: Child{Name: "Emma", DailyLimit: 120},
		},
		{
			name:    "empty name",
			child:   Child{DailyLimit: 120},
			wantErr: ErrInvalidName,
		},
		{
			name:    "zero daily limit",
			child:   Child{Name: "Emma"},
			wantErr: ErrInvalidDailyLimit,
		},
		{
			name:    "negative daily limit",
			child:   Child{Name: "Emma", DailyLimit: -30},
			wantErr: ErrInvalidDailyLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.child.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestActivityValidate(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		wantErr  error
	}{
		{
			name:     "valid activity",
			activity: Activity{ChildID: "kid_1", Type: ActivityTypeApp, Name: "YouTube", Duration: 30},
		},
		{
			name:     "zero duration is allowed",
			activity: Activity{ChildID: "kid_1", Type: ActivityTypeApp, Name: "YouTube"},
		},
		{
			name:     "missing child ID",
			activity: Activity{Type: ActivityTypeApp, Name: "YouTube"},
			wantErr:  ErrInvalidChildID,
		},
		{
			name:     "missing type",
			activity: Activity{ChildID: "kid_1", Name: "YouTube"},
			wantErr:  ErrInvalidActivityType,
		},
		{
			name:     "missing name",
			activity: Activity{ChildID: "kid_1", Type: ActivityTypeApp},
			wantErr:  ErrInvalidName,
		},
		{
			name:     "negative duration",
			activity: Activity{ChildID: "kid_1", Type: ActivityTypeApp, Name: "YouTube", Duration: -1},
			wantErr:  ErrInvalidDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.activity.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategoryOrOther(t *testing.T) {
	assert.Equal(t, "games", (&Activity{Category: "games"}).CategoryOrOther())
	assert.Equal(t, CategoryOther, (&Activity{}).CategoryOrOther())
}
