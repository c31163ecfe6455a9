// +build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisefido-handover/internal/common/config"
	"wisefido-handover/internal/common/database"
	"wisefido-handover/internal/domain"
)

// getTestDB connects using TEST_DB_* variables and applies the schema.
func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres", Password: "postgres",
		Database: "wisefido_handover_test", SSLMode: "disable", MaxConns: 10, MaxIdle: 2,
	}
	cfg.LoadFromEnv("TEST_DB")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to test database: %v", err)
		return nil
	}
	require.NoError(t, ApplySchema(context.Background(), db))
	return db
}

func seedPatient(t *testing.T, db *sql.DB) string {
	id := "it-" + uuid.NewString()
	_, err := db.Exec(`INSERT INTO patients (id, full_name) VALUES ($1, $2)`, id, "Integration Patient")
	require.NoError(t, err)
	return id
}

func integrationBundle(patientID string) *domain.NewHandoverBundle {
	b := testBundle(time.Now().UTC())
	b.Handover.PatientID = patientID
	b.Assignment.PatientID = patientID
	return b
}

func TestIntegration_ActiveWindowAndTransitions(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()
	repo := NewPostgresHandoversRepository(db)
	pid := seedPatient(t, db)

	h, err := repo.CreateHandover(ctx, integrationBundle(pid))
	require.NoError(t, err)

	_, err = repo.CreateHandover(ctx, integrationBundle(pid))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	for _, name := range []domain.TransitionName{domain.TransitionReady, domain.TransitionStart} {
		tr, _ := domain.LookupTransition(name)
		ok, err := repo.ApplyTransition(ctx, tr, domain.TransitionCommand{HandoverID: h.ID}, time.Now())
		require.NoError(t, err)
		require.True(t, ok, name)
	}

	// Concurrent accepts guarded by the same expected version: exactly one wins.
	accept, _ := domain.LookupTransition(domain.TransitionAccept)
	v := int64(3)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ApplyTransition(ctx, accept, domain.TransitionCommand{HandoverID: h.ID, ExpectedVersion: &v}, time.Now())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	got, err := repo.GetHandover(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, domain.StateAccepted, domain.DeriveState(got))

	cancel, _ := domain.LookupTransition(domain.TransitionCancel)
	ok, err := repo.ApplyTransition(ctx, cancel, domain.TransitionCommand{HandoverID: h.ID, ActorID: "dr-a"}, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = repo.CreateHandover(ctx, integrationBundle(pid))
	assert.NoError(t, err, "terminal handover frees the window")
}

func TestIntegration_LazySectionsConverge(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()
	pid := seedPatient(t, db)

	b := integrationBundle(pid)
	b.Sections = nil
	h, err := NewPostgresHandoversRepository(db).CreateHandover(ctx, b)
	require.NoError(t, err)

	secs := NewPostgresSectionsRepository(db)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := secs.MaterializeDefaultSection(ctx, h.ID, domain.SectionSynthesis, time.Now())
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM handover_sections WHERE handover_id = $1 AND kind = 'synthesis'`, h.ID).Scan(&n))
	assert.Equal(t, 1, n)

	ok, err := secs.MaterializeDefaultSection(ctx, "ghost-"+uuid.NewString(), domain.SectionSynthesis, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
