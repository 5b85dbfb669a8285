package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"kidsafe/internal/core"
	"kidsafe/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"), time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func createTestUser(t *testing.T, s *SQLiteStorage, id, email string) *core.User {
	t.Helper()

	user := &core.User{
		ID:           id,
		Name:         "Parent",
		Email:        email,
		PasswordHash: "hash",
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestChild(t *testing.T, s *SQLiteStorage, id, parentID, deviceID string) *core.Child {
	t.Helper()

	child := &core.Child{
		ID:         id,
		ParentID:   parentID,
		Name:       "Child " + id,
		DeviceID:   deviceID,
		DailyLimit: 120,
		Avatar:     "avatar1.png",
	}
	require.NoError(t, s.CreateChild(context.Background(), child))
	return child
}

func TestUserCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		createTestUser(t, s, "usr_1", "alice@example.com")

		user, err := s.GetUser(ctx, "usr_1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("get by email", func(t *testing.T) {
		user, err := s.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "usr_1", user.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := s.CreateUser(ctx, &core.User{
			ID:           "usr_2",
			Name:         "Other",
			Email:        "alice@example.com",
			PasswordHash: "hash",
		})
		assert.ErrorIs(t, err, core.ErrEmailInUse)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetUser(ctx, "usr_missing")
		assert.ErrorIs(t, err, core.ErrUserNotFound)

		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, core.ErrUserNotFound)
	})

	t.Run("invalid user", func(t *testing.T) {
		err := s.CreateUser(ctx, &core.User{ID: "usr_3", Email: "no-name@example.com"})
		assert.ErrorIs(t, err, core.ErrInvalidName)
	})
}

func TestChildCRUD(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	createTestUser(t, s, "usr_1", "alice@example.com")

	t.Run("create and get", func(t *testing.T) {
		child := &core.Child{
			ID:              "kid_1",
			ParentID:        "usr_1",
			Name:            "Emma",
			DeviceID:        "device-abc",
			DailyLimit:      90,
			BlockedWebsites: []string{"badsite.com", "worse.com"},
			Avatar:          "avatar2.png",
		}
		require.NoError(t, s.CreateChild(ctx, child))

		got, err := s.GetChild(ctx, "kid_1")
		require.NoError(t, err)
		assert.Equal(t, "Emma", got.Name)
		assert.Equal(t, 90, got.DailyLimit)
		assert.Equal(t, []string{"badsite.com", "worse.com"}, got.BlockedWebsites)
	})

	t.Run("get by device ID", func(t *testing.T) {
		child, err := s.GetChildByDeviceID(ctx, "device-abc")
		require.NoError(t, err)
		assert.Equal(t, "kid_1", child.ID)
	})

	t.Run("duplicate device ID", func(t *testing.T) {
		err := s.CreateChild(ctx, &core.Child{
			ID:         "kid_2",
			ParentID:   "usr_1",
			Name:       "Liam",
			DeviceID:   "device-abc",
			DailyLimit: 60,
		})
		assert.ErrorIs(t, err, core.ErrDeviceIDInUse)
	})

	t.Run("list by parent", func(t *testing.T) {
		createTestUser(t, s, "usr_2", "bob@example.com")
		createTestChild(t, s, "kid_other", "usr_2", "device-other")

		children, err := s.ListChildrenByParent(ctx, "usr_1")
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, "kid_1", children[0].ID)

		all, err := s.ListChildren(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("update", func(t *testing.T) {
		child, err := s.GetChild(ctx, "kid_1")
		require.NoError(t, err)

		child.DailyLimit = 45
		child.BlockedWebsites = nil
		require.NoError(t, s.UpdateChild(ctx, child))

		got, err := s.GetChild(ctx, "kid_1")
		require.NoError(t, err)
		assert.Equal(t, 45, got.DailyLimit)
		assert.Empty(t, got.BlockedWebsites)
	})

	t.Run("update missing child", func(t *testing.T) {
		err := s.UpdateChild(ctx, &core.Child{
			ID:         "kid_missing",
			Name:       "Ghost",
			DeviceID:   "device-ghost",
			DailyLimit: 60,
		})
		assert.ErrorIs(t, err, core.ErrChildNotFound)
	})

	t.Run("delete cascades to activities", func(t *testing.T) {
		require.NoError(t, s.CreateActivity(ctx, &core.Activity{
			ID:       "act_1",
			ChildID:  "kid_1",
			Type:     core.ActivityTypeApp,
			Name:     "YouTube",
			Duration: 30,
		}))

		require.NoError(t, s.DeleteChild(ctx, "kid_1"))

		_, err := s.GetChild(ctx, "kid_1")
		assert.ErrorIs(t, err, core.ErrChildNotFound)

		activities, err := s.ListActivitiesByChild(ctx, "kid_1", storage.ActivityFilter{})
		require.NoError(t, err)
		assert.Empty(t, activities)
	})

	t.Run("delete missing child", func(t *testing.T) {
		err := s.DeleteChild(ctx, "kid_missing")
		assert.ErrorIs(t, err, core.ErrChildNotFound)
	})
}

func TestActivityStorage(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	createTestUser(t, s, "usr_1", "alice@example.com")
	createTestChild(t, s, "kid_1", "usr_1", "device-1")

	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("create and list newest first", func(t *testing.T) {
		for i, spec := range []struct {
			id       string
			typ      string
			category string
			offset   time.Duration
		}{
			{"act_1", core.ActivityTypeWebsite, "entertainment", 0},
			{"act_2", core.ActivityTypeApp, "education", -1 * time.Hour},
			{"act_3", core.ActivityTypeGame, "games", -2 * time.Hour},
		} {
			require.NoError(t, s.CreateActivity(ctx, &core.Activity{
				ID:        spec.id,
				ChildID:   "kid_1",
				Type:      spec.typ,
				Name:      "Item " + spec.id,
				Category:  spec.category,
				Duration:  10 * (i + 1),
				Timestamp: base.Add(spec.offset),
			}))
		}

		activities, err := s.ListActivitiesByChild(ctx, "kid_1", storage.ActivityFilter{})
		require.NoError(t, err)
		require.Len(t, activities, 3)
		assert.Equal(t, "act_1", activities[0].ID)
		assert.Equal(t, "act_3", activities[2].ID)
	})

	t.Run("filter by type", func(t *testing.T) {
		activities, err := s.ListActivitiesByChild(ctx, "kid_1", storage.ActivityFilter{
			Type: core.ActivityTypeGame,
		})
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, "act_3", activities[0].ID)
	})

	t.Run("filter by category", func(t *testing.T) {
		activities, err := s.ListActivitiesByChild(ctx, "kid_1", storage.ActivityFilter{
			Category: "education",
		})
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, "act_2", activities[0].ID)
	})

	t.Run("filter by time range", func(t *testing.T) {
		from := base.Add(-90 * time.Minute)
		to := base.Add(-30 * time.Minute)
		activities, err := s.ListActivitiesByChild(ctx, "kid_1", storage.ActivityFilter{
			From: &from,
			To:   &to,
		})
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, "act_2", activities[0].ID)
	})

	t.Run("zero timestamp defaults to creation time", func(t *testing.T) {
		activity := &core.Activity{
			ID:       "act_now",
			ChildID:  "kid_1",
			Type:     core.ActivityTypeApp,
			Name:     "Untimed",
			Duration: 5,
		}
		require.NoError(t, s.CreateActivity(ctx, activity))
		assert.False(t, activity.Timestamp.IsZero())
	})

	t.Run("invalid activity is rejected", func(t *testing.T) {
		err := s.CreateActivity(ctx, &core.Activity{
			ID:      "act_bad",
			ChildID: "kid_1",
			Type:    core.ActivityTypeApp,
		})
		assert.ErrorIs(t, err, core.ErrInvalidName)
	})
}

func TestCreateActivitiesBatch(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	createTestUser(t, s, "usr_1", "alice@example.com")
	createTestChild(t, s, "kid_1", "usr_1", "device-1")

	t.Run("inserts all records", func(t *testing.T) {
		batch := []*core.Activity{
			{ID: "act_1", ChildID: "kid_1", Type: core.ActivityTypeApp, Name: "A", Duration: 10},
			{ID: "act_2", ChildID: "kid_1", Type: core.ActivityTypeApp, Name: "B", Duration: 20},
		}
		require.NoError(t, s.CreateActivities(ctx, batch))

		activities, err := s.ListActivitiesByChild(ctx, "kid_1", storage.ActivityFilter{})
		require.NoError(t, err)
		assert.Len(t, activities, 2)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		assert.NoError(t, s.CreateActivities(ctx, nil))
	})

	t.Run("validation failure rejects the whole batch", func(t *testing.T) {
		batch := []*core.Activity{
			{ID: "act_3", ChildID: "kid_1", Type: core.ActivityTypeApp, Name: "C", Duration: 10},
			{ID: "act_4", ChildID: "kid_1", Type: core.ActivityTypeApp, Name: "D", Duration: -1},
		}
		assert.ErrorIs(t, s.CreateActivities(ctx, batch), core.ErrInvalidDuration)

		activities, err := s.ListActivitiesByChild(ctx, "kid_1", storage.ActivityFilter{})
		require.NoError(t, err)
		assert.Len(t, activities, 2)
	})
}
