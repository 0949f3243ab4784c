package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"ethicure/internal/kv/kvtest"
)

func TestContract(t *testing.T) {
	uri := os.Getenv("ETHICURE_TEST_MONGO_URI")
	if uri == "" {
		t.Skipf("ETHICURE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := Open(ctx, Config{URI: uri, Database: "ethicure_test", Collection: "kv_contract"})
	if err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Collection().Drop(context.Background())
		_ = s.Close()
	})
	kvtest.RunContract(t, s)
}
