package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/food-advisor/internal/ai"
	"github.com/fdg312/food-advisor/internal/storage"
	"github.com/fdg312/food-advisor/internal/storage/memory"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	reply      string
	err        error
	calls      int
	prompt     string
	credential string
}

func (c *stubClient) Generate(ctx context.Context, prompt, credential string) (string, error) {
	c.calls++
	c.prompt = prompt
	c.credential = credential
	return c.reply, c.err
}

type failingHistory struct {
	*memory.MemoryStorage
}

func (failingHistory) CreateAnalysis(ctx context.Context, a *storage.Analysis) error {
	return errors.New("disk full")
}

func seedUser(t *testing.T, store *memory.MemoryStorage) *storage.User {
	t.Helper()
	u := &storage.User{
		Email:         "alex@example.com",
		Name:          "Alex",
		Age:           30,
		Gender:        "MALE",
		WeightKg:      70,
		HeightCm:      175,
		ActivityLevel: "MODERATELY_ACTIVE",
		GeminiAPIKey:  "AIzaTestKey",
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func newTestService(client ai.Client) (*Service, *memory.MemoryStorage) {
	store := memory.New()
	return NewService(store, store, client, zerolog.Nop()), store
}

func TestAnalyzeEndToEnd(t *testing.T) {
	client := &stubClient{reply: wellFormedReply}
	svc, store := newTestService(client)
	user := seedUser(t, store)

	rec, err := svc.Analyze(context.Background(), user.ID, "  Grilled chicken ", 100)
	require.NoError(t, err)

	assert.Equal(t, "Grilled chicken", rec.FoodName)
	assert.Equal(t, 100.0, rec.PortionGrams)
	assert.True(t, rec.Suitable)
	assert.Equal(t, SuitabilityExcellent, rec.Suitability)
	assert.Equal(t, 150.0, rec.RecommendedPortionGrams)
	assert.Equal(t, []string{"High protein", "Low fat"}, rec.Benefits)
	assert.Empty(t, rec.Warnings)
	assert.Equal(t, "Good choice.", rec.Reasoning)
	assert.InDelta(t, 7.826, rec.PercentOfDailyCalories, 0.001)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "AIzaTestKey", client.credential)
	assert.Contains(t, client.prompt, "- Food: Grilled chicken\n")
	assert.Contains(t, client.prompt, "- Portion Size: 100 grams\n")

	items, err := svc.History(context.Background(), user.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Grilled chicken", items[0].FoodName)
	assert.Equal(t, SuitabilityExcellent, items[0].Suitability)
	assert.Equal(t, user.ID, items[0].UserID)
}

func TestAnalyzeRejectsInvalidRequests(t *testing.T) {
	client := &stubClient{reply: wellFormedReply}
	svc, store := newTestService(client)
	user := seedUser(t, store)

	cases := []struct {
		name    string
		userID  uuid.UUID
		food    string
		portion float64
	}{
		{"missing user", uuid.Nil, "Apple", 100},
		{"blank food", user.ID, "   ", 100},
		{"zero portion", user.ID, "Apple", 0},
		{"too large portion", user.ID, "Apple", 2000.5},
		{"negative portion", user.ID, "Apple", -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tc.userID, tc.food, tc.portion)
			assert.Equal(t, FailureInvalidRequest, KindOf(err))
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	assert.Zero(t, client.calls)
}

func TestAnalyzePortionBounds(t *testing.T) {
	client := &stubClient{reply: wellFormedReply}
	svc, store := newTestService(client)
	user := seedUser(t, store)

	for _, portion := range []float64{MinPortionGrams, MaxPortionGrams} {
		_, err := svc.Analyze(context.Background(), user.ID, "Apple", portion)
		assert.NoError(t, err)
	}
}

func TestAnalyzeUnknownUser(t *testing.T) {
	client := &stubClient{reply: wellFormedReply}
	svc, _ := newTestService(client)

	_, err := svc.Analyze(context.Background(), uuid.New(), "Apple", 100)

	assert.Equal(t, FailureUserNotFound, KindOf(err))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Zero(t, client.calls)
}

func TestAnalyzeIncompleteProfile(t *testing.T) {
	client := &stubClient{reply: wellFormedReply}
	svc, store := newTestService(client)
	u := &storage.User{Email: "kid@example.com", Name: "Kid", Age: 3, Gender: "MALE", WeightKg: 15, HeightCm: 90, ActivityLevel: "SEDENTARY"}
	require.NoError(t, store.CreateUser(context.Background(), u))

	_, err := svc.Analyze(context.Background(), u.ID, "Apple", 100)

	assert.Equal(t, FailureInvalidRequest, KindOf(err))
	assert.Zero(t, client.calls)
}

func TestAnalyzeClientFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"missing key", &ai.CredentialError{Reason: ai.CredentialMissing}, FailureCredential},
		{"rejected key", &ai.CredentialError{Reason: ai.CredentialRejected}, FailureCredential},
		{"rate limited", &ai.RateLimitError{Attempts: 3}, FailureRateLimit},
		{"quota", &ai.TransportError{Kind: ai.TransportQuota}, FailureTransport},
		{"network", &ai.TransportError{Kind: ai.TransportNetwork, Cause: errors.New("reset")}, FailureTransport},
		{"cancelled", context.Canceled, FailureTransport},
		{"unknown", errors.New("boom"), FailureInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(&stubClient{err: tc.err})
			user := seedUser(t, store)

			_, err := svc.Analyze(context.Background(), user.ID, "Apple", 100)

			require.Error(t, err)
			assert.Equal(t, tc.want, KindOf(err))
			assert.ErrorIs(t, err, tc.err)

			items, err := svc.History(context.Background(), user.ID, 0, 0)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestAnalyzeCredentialMessages(t *testing.T) {
	svc, store := newTestService(&stubClient{err: &ai.CredentialError{Reason: ai.CredentialMalformed}})
	user := seedUser(t, store)

	_, err := svc.Analyze(context.Background(), user.ID, "Apple", 100)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "Gemini API key has an invalid format", f.Message)
}

func TestAnalyzeBlankReplyIsParseFailure(t *testing.T) {
	svc, store := newTestService(&stubClient{reply: "  \n "})
	user := seedUser(t, store)

	_, err := svc.Analyze(context.Background(), user.ID, "Apple", 100)

	assert.Equal(t, FailureParse, KindOf(err))
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestAnalyzeHistoryFailureDoesNotFailAnalysis(t *testing.T) {
	store := memory.New()
	user := seedUser(t, store)
	svc := NewService(store, failingHistory{store}, &stubClient{reply: wellFormedReply}, zerolog.Nop())

	rec, err := svc.Analyze(context.Background(), user.ID, "Apple", 100)

	require.NoError(t, err)
	assert.Equal(t, SuitabilityExcellent, rec.Suitability)
}

func TestAnalyzeWithMockClient(t *testing.T) {
	svc, store := newTestService(ai.NewMockClient())
	user := seedUser(t, store)

	rec, err := svc.Analyze(context.Background(), user.ID, "Chocolate cake", 200)
	require.NoError(t, err)

	assert.Equal(t, SuitabilityPoor, rec.Suitability)
	assert.False(t, rec.Suitable)
	assert.Equal(t, 60.0, rec.RecommendedPortionGrams)
	assert.NotEmpty(t, rec.Warnings)
}

func TestHistoryPaging(t *testing.T) {
	svc, store := newTestService(&stubClient{reply: wellFormedReply})
	user := seedUser(t, store)

	for _, food := range []string{"Apple", "Banana", "Cherry"} {
		_, err := svc.Analyze(context.Background(), user.ID, food, 100)
		require.NoError(t, err)
	}

	items, err := svc.History(context.Background(), user.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Cherry", items[0].FoodName)
	assert.Equal(t, "Banana", items[1].FoodName)

	items, err = svc.History(context.Background(), user.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Apple", items[0].FoodName)
}

func TestHistoryUnknownUser(t *testing.T) {
	svc, _ := newTestService(&stubClient{})
	_, err := svc.History(context.Background(), uuid.New(), 0, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
