package turso_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/emiliopalmerini/poisonbench/internal/adapters/turso"
	"github.com/emiliopalmerini/poisonbench/internal/apperr"
	"github.com/emiliopalmerini/poisonbench/internal/domain"
)

func seedExperiment(t *testing.T, repo *turso.ExperimentRepository, id, name string) {
	t.Helper()
	err := repo.Create(context.Background(), &domain.Experiment{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to seed experiment: %v", err)
	}
}

func TestExperimentRepository(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := turso.NewExperimentRepository(db.DB)

	missing, err := repo.GetByName(ctx, "nope")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown experiment, got %+v", missing)
	}

	seedExperiment(t, repo, "exp-1", "poisoning")

	got, err := repo.GetByName(ctx, "poisoning")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got == nil || got.ID != "exp-1" {
		t.Fatalf("expected exp-1, got %+v", got)
	}

	byID, err := repo.GetByID(ctx, "exp-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID == nil || byID.Name != "poisoning" {
		t.Fatalf("expected poisoning, got %+v", byID)
	}

	err = repo.Create(ctx, &domain.Experiment{ID: "exp-2", Name: "poisoning", CreatedAt: time.Now()})
	if err == nil {
		t.Fatal("expected duplicate experiment name to fail")
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 experiment, got %d", len(list))
	}
}

func TestExperimentRepository_CreateRacesAnotherWriter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracking.db")
	first := turso.NewExperimentRepository(openStore(t, path).DB)
	second := turso.NewExperimentRepository(openStore(t, path).DB)

	missing, err := first.GetByName(ctx, "poisoning")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected no experiment yet, got %+v", missing)
	}

	seedExperiment(t, second, "exp-second", "poisoning")

	err = first.Create(ctx, &domain.Experiment{ID: "exp-first", Name: "poisoning", CreatedAt: time.Now()})
	if !errors.Is(err, apperr.ErrExperimentExists) {
		t.Fatalf("expected ErrExperimentExists, got %v", err)
	}

	got, err := first.GetByName(ctx, "poisoning")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if got == nil || got.ID != "exp-second" {
		t.Fatalf("expected exp-second, got %+v", got)
	}
}

func TestRunRepository_CreateAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedExperiment(t, turso.NewExperimentRepository(db.DB), "exp-1", "poisoning")
	repo := turso.NewRunRepository(db.DB)

	names := []string{"iris_clean", "iris_poison_50pct_random", "iris_poison_10pct_random"}
	for i, name := range names {
		run := &domain.Run{
			ID:           name,
			ExperimentID: "exp-1",
			Name:         name,
			Params:       map[string]string{domain.ParamDataPath: "data/" + name + ".csv"},
			Metrics:      map[string]float64{domain.MetricAccuracy: 0.9 - float64(i)*0.1},
			Artifacts:    []domain.Artifact{{Name: "report.txt", Path: "/tmp/" + name, Size: 42}},
			StartedAt:    time.Now().UTC(),
			EndedAt:      time.Now().UTC(),
		}
		if err := repo.Create(ctx, run); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	runs, err := repo.ListByExperimentID(ctx, "exp-1")
	if err != nil {
		t.Fatalf("ListByExperimentID failed: %v", err)
	}
	if len(runs) != len(names) {
		t.Fatalf("expected %d runs, got %d", len(names), len(runs))
	}
	for i, run := range runs {
		if run.Name != names[i] {
			t.Errorf("run %d: expected %s, got %s", i, names[i], run.Name)
		}
		if run.Params[domain.ParamDataPath] != "data/"+names[i]+".csv" {
			t.Errorf("run %d: unexpected params %v", i, run.Params)
		}
		if _, ok := run.Metric(domain.MetricAccuracy); !ok {
			t.Errorf("run %d: accuracy missing", i)
		}
		if _, ok := run.Metric(domain.MetricF1Macro); ok {
			t.Errorf("run %d: f1_macro should be absent", i)
		}
		if len(run.Artifacts) != 1 || run.Artifacts[0].Size != 42 {
			t.Errorf("run %d: unexpected artifacts %v", i, run.Artifacts)
		}
	}

	other, err := repo.ListByExperimentID(ctx, "exp-unknown")
	if err != nil {
		t.Fatalf("ListByExperimentID failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no runs for unknown experiment, got %d", len(other))
	}
}

func TestRunRepository_CreateIsAtomic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedExperiment(t, turso.NewExperimentRepository(db.DB), "exp-1", "poisoning")
	repo := turso.NewRunRepository(db.DB)

	// Two artifacts with the same name violate the primary key after the run
	// row itself was inserted.
	run := &domain.Run{
		ID:           "run-1",
		ExperimentID: "exp-1",
		Name:         "iris_clean",
		Artifacts: []domain.Artifact{
			{Name: "report.txt", Path: "a"},
			{Name: "report.txt", Path: "b"},
		},
	}
	if err := repo.Create(ctx, run); err == nil {
		t.Fatal("expected duplicate artifact to fail")
	}

	got, err := repo.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected failed run to be absent, got %+v", got)
	}
}

func TestRunRepository_ListKeepsRecordOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seedExperiment(t, turso.NewExperimentRepository(db.DB), "exp-1", "poisoning")
	repo := turso.NewRunRepository(db.DB)

	for _, name := range []string{"earlier", "later"} {
		now := time.Now().UTC()
		err := repo.Create(ctx, &domain.Run{ID: name, ExperimentID: "exp-1", Name: name, StartedAt: now, EndedAt: now})
		if err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	// RFC3339Nano drops trailing zeros, so the later instant sorts first as text.
	stamps := map[string]string{
		"earlier": "2026-10-15T10:00:00.1Z",
		"later":   "2026-10-15T10:00:00.12Z",
	}
	for id, ts := range stamps {
		if _, err := db.DB.ExecContext(ctx, `UPDATE runs SET created_at = ? WHERE id = ?`, ts, id); err != nil {
			t.Fatalf("failed to set created_at: %v", err)
		}
	}

	runs, err := repo.ListByExperimentID(ctx, "exp-1")
	if err != nil {
		t.Fatalf("ListByExperimentID failed: %v", err)
	}
	if len(runs) != 2 || runs[0].Name != "earlier" || runs[1].Name != "later" {
		t.Fatalf("expected [earlier later], got %v", runNames(runs))
	}
}

func runNames(runs []*domain.Run) []string {
	names := make([]string, len(runs))
	for i, r := range runs {
		names[i] = r.Name
	}
	return names
}
