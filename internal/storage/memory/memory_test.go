package memory

import (
	"context"
	"testing"

	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) *storage.User {
	return &storage.User{
		Email:            email,
		Name:             "Alex",
		Age:              30,
		Gender:           "MALE",
		WeightKg:         70,
		HeightCm:         175,
		ActivityLevel:    "MODERATELY_ACTIVE",
		HealthConditions: []string{"diabetes"},
		GeminiAPIKey:     "AIzaKey",
	}
}

func TestUsersCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := newUser("alex@example.com")
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotEqual(t, uuid.Nil, u.ID)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", got.Email)
	assert.Equal(t, []string{"diabetes"}, got.HealthConditions)

	got.HealthConditions[0] = "mutated"
	again, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "diabetes", again.HealthConditions[0], "returned values must be copies")

	byEmail, err := s.GetUserByEmail(ctx, "ALEX@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	exists, err := s.ExistsByEmail(ctx, "alex@EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ExistsByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	u.WeightKg = 80
	require.NoError(t, s.UpdateUser(ctx, u))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 80.0, got.WeightKg)

	list, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), storage.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateUser(ctx, newUser("a@example.com")))
	assert.ErrorIs(t, s.CreateUser(ctx, newUser("A@example.com")), storage.ErrConflict)

	other := newUser("b@example.com")
	require.NoError(t, s.CreateUser(ctx, other))
	other.Email = "a@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, other), storage.ErrConflict)
}

func TestUpdateMissingUser(t *testing.T) {
	u := newUser("x@example.com")
	u.ID = uuid.New()
	assert.ErrorIs(t, New().UpdateUser(context.Background(), u), storage.ErrNotFound)
}

func TestAnalysesNewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID := uuid.New()

	for _, food := range []string{"apple", "banana", "cherry"} {
		require.NoError(t, s.CreateAnalysis(ctx, &storage.Analysis{UserID: userID, FoodName: food}))
	}
	require.NoError(t, s.CreateAnalysis(ctx, &storage.Analysis{UserID: uuid.New(), FoodName: "other"}))

	all, err := s.ListAnalyses(ctx, userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "cherry", all[0].FoodName)
	assert.Equal(t, "apple", all[2].FoodName)
	assert.NotNil(t, all[0].Benefits)

	page, err := s.ListAnalyses(ctx, userID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "banana", page[0].FoodName)

	empty, err := s.ListAnalyses(ctx, userID, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.DeleteAnalysesByUser(ctx, userID))
	all, err = s.ListAnalyses(ctx, userID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID := uuid.New()

	key := "reports/" + userID.String() + "/r.csv"
	r := &storage.ReportMeta{UserID: userID, Format: "csv", Status: "ready", ObjectKey: &key, SizeBytes: 3, ContentType: "text/csv"}
	require.NoError(t, s.CreateReport(ctx, r))

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ObjectKey)
	assert.Equal(t, key, *got.ObjectKey)
	assert.Equal(t, int64(3), got.SizeBytes)

	list, err := s.ListReports(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)

	other, err := s.ListReports(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.DeleteReport(ctx, r.ID))
	_, err = s.GetReport(ctx, r.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
