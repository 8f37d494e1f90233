package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/21mScot/sitecast/internal/catalogue"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSeedCatalogue(t *testing.T) {
	s := setupTestDB(t)

	miners, err := catalogue.Builtin(catalogue.VariantDev)
	if err != nil {
		t.Fatalf("failed to load builtin catalogue: %v", err)
	}

	if err := s.SeedCatalogue(catalogue.VariantDev, miners); err != nil {
		t.Fatalf("failed to seed catalogue: %v", err)
	}

	got, err := s.GetCatalogue(catalogue.VariantDev)
	if err != nil {
		t.Fatalf("failed to get catalogue: %v", err)
	}
	if len(got) != len(miners) {
		t.Fatalf("expected %d miners, got %d", len(miners), len(got))
	}
	for i := range miners {
		if got[i] != miners[i] {
			t.Errorf("position %d: expected %+v, got %+v", i, miners[i], got[i])
		}
	}
}

func TestSeedCatalogue_DoesNotOverwriteEdits(t *testing.T) {
	s := setupTestDB(t)

	edited := []catalogue.Miner{
		{Name: "operator-edit", HashrateTHs: 300, PowerW: 5000, PriceUSD: 4200},
	}
	if err := s.ReplaceCatalogue(catalogue.VariantProd, edited); err != nil {
		t.Fatalf("failed to replace catalogue: %v", err)
	}

	builtin, err := catalogue.Builtin(catalogue.VariantProd)
	if err != nil {
		t.Fatalf("failed to load builtin catalogue: %v", err)
	}
	if err := s.SeedCatalogue(catalogue.VariantProd, builtin); err != nil {
		t.Fatalf("failed to seed catalogue: %v", err)
	}

	got, err := s.GetCatalogue(catalogue.VariantProd)
	if err != nil {
		t.Fatalf("failed to get catalogue: %v", err)
	}
	if len(got) != 1 || got[0].Name != "operator-edit" {
		t.Errorf("seed overwrote operator edits: %+v", got)
	}
}

func TestReplaceCatalogue_PreservesOrder(t *testing.T) {
	s := setupTestDB(t)

	// Names deliberately out of alphabetical order.
	miners := []catalogue.Miner{
		{Name: "zeta", HashrateTHs: 100, PowerW: 3000, PriceUSD: 1000},
		{Name: "alpha", HashrateTHs: 200, PowerW: 3500, PriceUSD: 2000},
		{Name: "mid", HashrateTHs: 150, PowerW: 3200, PriceUSD: 1500},
	}
	if err := s.ReplaceCatalogue(catalogue.VariantDev, miners); err != nil {
		t.Fatalf("failed to replace catalogue: %v", err)
	}

	got, err := s.GetCatalogue(catalogue.VariantDev)
	if err != nil {
		t.Fatalf("failed to get catalogue: %v", err)
	}
	for i := range miners {
		if got[i].Name != miners[i].Name {
			t.Errorf("position %d: expected %s, got %s", i, miners[i].Name, got[i].Name)
		}
	}
}

func TestReplaceCatalogue_RejectsInvalid(t *testing.T) {
	s := setupTestDB(t)

	bad := []catalogue.Miner{
		{Name: "broken", HashrateTHs: -1, PowerW: 3000, PriceUSD: 1000},
	}
	if err := s.ReplaceCatalogue(catalogue.VariantDev, bad); err == nil {
		t.Fatal("expected validation error, got nil")
	}

	got, err := s.GetCatalogue(catalogue.VariantDev)
	if err != nil {
		t.Fatalf("failed to get catalogue: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("invalid catalogue was partially stored: %+v", got)
	}
}

func TestCatalogue_VariantsAreIsolated(t *testing.T) {
	s := setupTestDB(t)

	dev := []catalogue.Miner{{Name: "dev-only", HashrateTHs: 100, PowerW: 3000, PriceUSD: 1000}}
	prod := []catalogue.Miner{{Name: "prod-only", HashrateTHs: 500, PowerW: 5500, PriceUSD: 8000}}

	if err := s.ReplaceCatalogue(catalogue.VariantDev, dev); err != nil {
		t.Fatalf("failed to replace dev catalogue: %v", err)
	}
	if err := s.ReplaceCatalogue(catalogue.VariantProd, prod); err != nil {
		t.Fatalf("failed to replace prod catalogue: %v", err)
	}

	gotDev, err := s.GetCatalogue(catalogue.VariantDev)
	if err != nil {
		t.Fatalf("failed to get dev catalogue: %v", err)
	}
	if len(gotDev) != 1 || gotDev[0].Name != "dev-only" {
		t.Errorf("dev catalogue polluted: %+v", gotDev)
	}

	gotProd, err := s.GetCatalogue(catalogue.VariantProd)
	if err != nil {
		t.Fatalf("failed to get prod catalogue: %v", err)
	}
	if len(gotProd) != 1 || gotProd[0].Name != "prod-only" {
		t.Errorf("prod catalogue polluted: %+v", gotProd)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := setupTestDB(t)

	irr := 0.152
	payback := 3.33
	run := &Run{
		CreatedAt:         time.Now().UTC(),
		Variant:           "prod",
		MinerName:         "S21 XP+ Hydro",
		NMiners:           40,
		CapexUSD:          313360,
		NPVBase:           52000.5,
		IRRBase:           &irr,
		SimplePaybackBase: &payback,
		RequestJSON:       `{"horizonYears":5}`,
		ResultJSON:        `{"scenarios":[]}`,
	}

	if err := s.SaveRun(run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("expected run to be assigned an ID")
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}
	if got.MinerName != "S21 XP+ Hydro" || got.NMiners != 40 {
		t.Errorf("run fields mismatch: %+v", got)
	}
	if got.IRRBase == nil || *got.IRRBase != 0.152 {
		t.Errorf("expected IRR 0.152, got %v", got.IRRBase)
	}
	if got.SimplePaybackBase == nil || *got.SimplePaybackBase != 3.33 {
		t.Errorf("expected payback 3.33, got %v", got.SimplePaybackBase)
	}
	if got.RequestJSON != `{"horizonYears":5}` {
		t.Errorf("request payload mismatch: %s", got.RequestJSON)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to round-trip")
	}
}

func TestSaveRun_NilMetrics(t *testing.T) {
	s := setupTestDB(t)

	// Undefined IRR and never-pays-back are stored as NULL, not zero.
	run := &Run{
		CreatedAt: time.Now().UTC(),
		Variant:   "dev",
		MinerName: "TestMake A-Hyper-efficient",
		NMiners:   10,
		CapexUSD:  40000,
		NPVBase:   -12000,
	}
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.IRRBase != nil {
		t.Errorf("expected nil IRR, got %v", *got.IRRBase)
	}
	if got.SimplePaybackBase != nil {
		t.Errorf("expected nil payback, got %v", *got.SimplePaybackBase)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := setupTestDB(t)

	got, err := s.GetRun(9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing run, got %+v", got)
	}
}

func TestGetRuns_NewestFirstWithLimit(t *testing.T) {
	s := setupTestDB(t)

	for i := 0; i < 5; i++ {
		run := &Run{
			CreatedAt: time.Now().UTC(),
			Variant:   "dev",
			MinerName: "TestMake B-High Hashrate",
			NMiners:   i + 1,
		}
		if err := s.SaveRun(run); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	runs, err := s.GetRuns(3)
	if err != nil {
		t.Fatalf("failed to get runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].ID > runs[i-1].ID {
			t.Errorf("runs out of order: %d before %d", runs[i-1].ID, runs[i].ID)
		}
	}
	if runs[0].NMiners != 5 {
		t.Errorf("expected newest run first, got NMiners=%d", runs[0].NMiners)
	}
}

func TestDeleteRun(t *testing.T) {
	s := setupTestDB(t)

	run := &Run{CreatedAt: time.Now().UTC(), Variant: "dev", MinerName: "x"}
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	if err := s.DeleteRun(run.ID); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	got, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected run to be gone after delete")
	}
}

func TestPurgeOldRuns(t *testing.T) {
	s := setupTestDB(t)

	old := &Run{CreatedAt: time.Now().UTC().AddDate(0, 0, -120), Variant: "dev", MinerName: "old"}
	recent := &Run{CreatedAt: time.Now().UTC(), Variant: "dev", MinerName: "recent"}
	if err := s.SaveRun(old); err != nil {
		t.Fatalf("failed to save old run: %v", err)
	}
	if err := s.SaveRun(recent); err != nil {
		t.Fatalf("failed to save recent run: %v", err)
	}

	deleted, err := s.PurgeOldRuns(90)
	if err != nil {
		t.Fatalf("failed to purge runs: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 purged run, got %d", deleted)
	}

	runs, err := s.GetRuns(10)
	if err != nil {
		t.Fatalf("failed to get runs: %v", err)
	}
	if len(runs) != 1 || runs[0].MinerName != "recent" {
		t.Errorf("expected only the recent run to survive, got %+v", runs)
	}
}
