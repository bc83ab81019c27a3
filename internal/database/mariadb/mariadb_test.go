//go:build integration

package mariadb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mariadb:11",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MARIADB_USER":          "test",
			"MARIADB_PASSWORD":      "test",
			"MARIADB_DATABASE":      "testdb",
			"MARIADB_ROOT_PASSWORD": "root",
		},
		WaitingFor: wait.ForLog("port: 3306").
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("test:test@tcp(%s:%s)/testdb?parseTime=true", host, port.Port())
	pool, err := Initialize(dsn)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to initialize MariaDB: %v", err)
	}

	return pool, func() {
		pool.Close()
		container.Terminate(ctx)
	}
}

func testEmbedding(seed int) []float32 {
	v := make([]float32, database.EmbeddingDim)
	for i := range v {
		v[i] = float32((i+seed)%database.EmbeddingDim) / float32(database.EmbeddingDim)
	}
	return v
}

func TestReferenceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewReferenceRepository(pool)

	rows := []database.ReferenceEmbedding{
		{Person: "alice", Embedding: testEmbedding(0)},
		{Person: "bob", Embedding: testEmbedding(1)},
	}
	added, err := repo.InsertBatch(ctx, rows)
	if err != nil {
		t.Fatalf("InsertBatch() error = %v", err)
	}
	if added != 2 {
		t.Errorf("InsertBatch() added = %d, want 2", added)
	}

	got, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetAll() returned %d rows, want 2", len(got))
	}
	// The JSON roundtrip must preserve the embedding exactly.
	if len(got[0].Embedding) != database.EmbeddingDim {
		t.Errorf("embedding dim = %d, want %d", len(got[0].Embedding), database.EmbeddingDim)
	}
	if got[0].Person != "alice" || got[1].Person != "bob" {
		t.Errorf("rows out of order: %v, %v", got[0].Person, got[1].Person)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestDetectionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewDetectionRepository(pool)

	alice := "alice"
	lat, lng := 50.0755, 14.4378
	if _, err := repo.Insert(ctx, &database.DetectionEvent{
		Person: &alice, ImageRef: "/data/queries/a.jpg", Recognized: true,
		Similarity: 0.82, Latitude: &lat, Longitude: &lng,
	}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := repo.Insert(ctx, &database.DetectionEvent{
		ImageRef: "/data/queries/u.jpg", Recognized: false, Similarity: 0.41,
	}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	recognized, err := repo.ListByRecognized(ctx, true)
	if err != nil {
		t.Fatalf("ListByRecognized() error = %v", err)
	}
	if len(recognized) != 1 || recognized[0].Person == nil || *recognized[0].Person != "alice" {
		t.Errorf("recognized = %+v, want one alice event", recognized)
	}

	unrecognized, err := repo.ListByRecognized(ctx, false)
	if err != nil {
		t.Fatalf("ListByRecognized() error = %v", err)
	}
	if len(unrecognized) != 1 || unrecognized[0].Person != nil {
		t.Errorf("unrecognized = %+v, want one anonymous event", unrecognized)
	}
}

func TestUserAndOTPRepositories(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	users := NewUserRepository(pool)
	otps := NewOTPRepository(pool)

	if _, err := users.Insert(ctx, &database.User{
		Username: "alice", Email: "alice@example.com", PasswordHash: "$2a$10$hash",
	}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	user, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("GetByEmail() = %+v, want alice", user)
	}

	code := &database.OTPCode{
		Email:     "new@example.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
	if err := otps.Insert(ctx, code); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	valid, err := otps.GetValid(ctx, "new@example.com", "123456")
	if err != nil {
		t.Fatalf("GetValid() error = %v", err)
	}
	if valid == nil {
		t.Fatal("GetValid() = nil, want the stored code")
	}
	if err := otps.Delete(ctx, valid.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}
