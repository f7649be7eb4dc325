// internal/testutil/db.go
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// TestContextTimeout bounds every TestContext. Index builds against a cold
// local MongoDB can take a few seconds, so this is deliberately generous.
const TestContextTimeout = 10 * time.Second

var dbCounter atomic.Int64

// TestContext returns a context suitable for store calls in tests.
// Callers must defer cancel().
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), TestContextTimeout)
}

// SetupTestDB connects to the MongoDB instance named by
// GATEHOUSE_TEST_MONGO_URI (default mongodb://localhost:27017) and returns
// a database unique to this test. The test is skipped when no MongoDB is
// reachable, so the suite stays runnable without local infrastructure.
//
// The database is dropped and the client disconnected in t.Cleanup.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("GATEHOUSE_TEST_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test MongoDB at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("skipping: test MongoDB at %s not reachable: %v", uri, err)
	}

	name := testDBName(t)
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("failed to drop test database %s: %v", name, err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("failed to disconnect test client: %v", err)
		}
	})

	return db
}

// testDBName derives a unique, Mongo-safe database name from the test name.
func testDBName(t *testing.T) string {
	base := strings.NewReplacer("/", "_", " ", "_", ".", "_", "#", "_").Replace(t.Name())
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("gatehouse_test_%s_%d_%d",
		strings.ToLower(base), time.Now().UnixNano()%1_000_000, dbCounter.Add(1))
}
