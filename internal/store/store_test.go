// Package store contains integration tests against a MongoDB container.
package store

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"

	"concierge/internal/models"
)

var testStore *Store
var testContainer testcontainers.Container

// TestMain sets up and tears down the MongoDB container for all tests.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "27017")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testStore, err = New(ctx, Config{
		URI:            fmt.Sprintf("mongodb://%s:%s", host, mappedPort.Port()),
		Database:       "concierge_test",
		ContextTTL:     30 * time.Minute,
		DedupTTL:       120 * time.Second,
		ShownKeysCap:   5,
		ShownEventsCap: 3,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	code := m.Run()

	_ = testStore.Close(ctx)
	_ = testContainer.Terminate(ctx)
	os.Exit(code)
}

func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

func TestGetOrCreateProfile(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	p, err := testStore.GetOrCreateProfile(ctx, "sender-1")
	require.NoError(t, err)
	assert.Equal(t, "sender-1", p.SenderID)
	assert.False(t, p.FirstSeen.IsZero(), "firstSeen should be set on insert")

	// Second call returns the same profile, firstSeen unchanged.
	p2, err := testStore.GetOrCreateProfile(ctx, "sender-1")
	require.NoError(t, err)
	assert.WithinDuration(t, p.FirstSeen, p2.FirstSeen, time.Second)
}

func TestContextTTL(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	_, err := testStore.GetOrCreateProfile(ctx, "sender-ttl")
	require.NoError(t, err)

	require.NoError(t, testStore.UpdateContext(ctx, "sender-ttl", bson.M{
		"lastCategory": models.CategoryRestaurant,
	}))

	c, err := testStore.GetContext(ctx, "sender-ttl")
	require.NoError(t, err)
	require.NotNil(t, c, "fresh context should be readable")
	assert.Equal(t, models.CategoryRestaurant, c.LastCategory)

	// Fast-forward the store clock past the TTL; the read must clear and
	// return nil.
	testStore.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	defer func() { testStore.now = time.Now }()

	c, err = testStore.GetContext(ctx, "sender-ttl")
	require.NoError(t, err)
	assert.Nil(t, c, "stale context must read as nil")

	// The clear must have persisted: even with a normal clock the context
	// stays gone.
	testStore.now = time.Now
	c, err = testStore.GetContext(ctx, "sender-ttl")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestUpdateContextMerges(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	_, err := testStore.GetOrCreateProfile(ctx, "sender-merge")
	require.NoError(t, err)

	require.NoError(t, testStore.UpdateContext(ctx, "sender-merge", bson.M{
		"pendingType":  models.PendingRestaurantGate,
		"pendingQuery": "best sushi",
	}))
	require.NoError(t, testStore.UpdateContext(ctx, "sender-merge", bson.M{
		"page": 2,
	}))

	c, err := testStore.GetContext(ctx, "sender-merge")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, models.PendingRestaurantGate, c.PendingType, "earlier fields survive later patches")
	assert.Equal(t, "best sushi", c.PendingQuery)
	assert.Equal(t, 2, c.Page)
}

func TestShownCapsFIFO(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	_, err := testStore.GetOrCreateProfile(ctx, "sender-caps")
	require.NoError(t, err)

	// Cap is 5 in the test config; push 7 and expect the oldest 2 evicted.
	for i := range 7 {
		key := fmt.Sprintf("key-%d", i)
		name := fmt.Sprintf("name-%d", i)
		require.NoError(t, testStore.AddShownRestaurants(ctx, "sender-caps", []string{key}, []string{name}))
	}

	c, err := testStore.GetContext(ctx, "sender-caps")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, []string{"key-2", "key-3", "key-4", "key-5", "key-6"}, c.ShownKeys)
	assert.Equal(t, []string{"name-2", "name-3", "name-4", "name-5", "name-6"}, c.ShownNames)

	// Event cap is 3.
	require.NoError(t, testStore.AddShownEvents(ctx, "sender-caps", []string{"e1", "e2", "e3", "e4"}))
	c, err = testStore.GetContext(ctx, "sender-caps")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, []string{"e2", "e3", "e4"}, c.ShownEventIDs)
}

func TestDeleteProfile(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	_, err := testStore.GetOrCreateProfile(ctx, "sender-del")
	require.NoError(t, err)

	found, err := testStore.DeleteProfile(ctx, "sender-del")
	require.NoError(t, err)
	assert.True(t, found)

	c, err := testStore.GetContext(ctx, "sender-del")
	require.NoError(t, err)
	assert.Nil(t, c, "context read after delete must return nil")

	found, err = testStore.DeleteProfile(ctx, "sender-del")
	require.NoError(t, err)
	assert.False(t, found, "second delete finds nothing")
}

func TestIsDuplicateMessageAtomic(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	assert.False(t, testStore.IsDuplicateMessage(ctx, "mid-1"), "first receipt is not a duplicate")
	assert.True(t, testStore.IsDuplicateMessage(ctx, "mid-1"), "second receipt is a duplicate")
	assert.False(t, testStore.IsDuplicateMessage(ctx, ""), "empty message id never dedups")

	// Concurrent inserts of the same id: exactly one caller may win.
	const n = 16
	var wg sync.WaitGroup
	wins := make(chan bool, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- !testStore.IsDuplicateMessage(ctx, "mid-race")
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for w := range wins {
		if w {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent insert may treat the message as new")
}

func TestQueryRestaurantsBroadens(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()

	_, err := testStore.UpsertRestaurants(ctx, []models.Restaurant{
		{Name: "Sushi Katsuei", Cuisine: "Japanese, sushi, omakase", Address: "210 7th Ave, Brooklyn, NY", Neighborhood: "Park Slope", Borough: "Brooklyn", Rating: 4.6, RatingCount: 900},
		{Name: "Peter Pan Donuts", Cuisine: "bakery, donuts", Address: "727 Manhattan Ave, Brooklyn, NY", Neighborhood: "Greenpoint", Borough: "Brooklyn", Rating: 4.7, RatingCount: 4000},
	})
	require.NoError(t, err)

	hits, err := testStore.QueryRestaurants(ctx, "sushi", "Brooklyn")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Sushi Katsuei", hits[0].Name)

	// No cuisine match in the borough: the retry drops the cuisine clause.
	hits, err = testStore.QueryRestaurants(ctx, "ethiopian", "Brooklyn")
	require.NoError(t, err)
	assert.NotEmpty(t, hits, "broadened query should return borough hits")
}
