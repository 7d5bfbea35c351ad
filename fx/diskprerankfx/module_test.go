package diskprerankfx

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/genepile/prerank"
	"github.com/genepile/prerank/internal/catalog"
)

func TestModule(t *testing.T) {
	src := filepath.Join(t.TempDir(), "hallmark.gmt")
	if err := os.WriteFile(src, []byte("UP\tna\tA\tB\nDOWN\tna\tC\tD\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	dir := t.TempDir()
	if _, err := catalog.NewBuilder(catalog.WithOutputDir(dir)).Build(context.Background(),
		[]catalog.Source{{Name: "hallmark", Location: src}}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var client *prerank.Client
	app := fxtest.New(t,
		fx.Supply(zap.NewNop(), Config{
			CatalogDir: dir,
			CacheSize:  2,
			Params:     &prerank.Params{Weight: 1, MinSize: 1, MaxSize: 10, Permutations: 20, Seed: 5},
			Workers:    2,
		}),
		Module,
		fx.Populate(&client),
	)
	app.RequireStart()
	defer app.RequireStop()

	names, err := client.Libraries(context.Background())
	if err != nil {
		t.Fatalf("Libraries() error = %v", err)
	}
	if !slices.Equal(names, []string{"hallmark"}) {
		t.Errorf("Libraries() = %v, want [hallmark]", names)
	}

	res, err := client.PrerankLibrary(context.Background(), prerank.Ranking{
		Genes:  []string{"A", "B", "E", "F", "C", "D"},
		Metric: []float64{3, 2, 1, -1, -2, -3},
	}, "hallmark")
	if err != nil {
		t.Fatalf("PrerankLibrary() error = %v", err)
	}
	if len(res.Summaries) != 2 {
		t.Fatalf("len(Summaries) = %d, want 2", len(res.Summaries))
	}
	for _, s := range res.Summaries {
		if len(s.ESNull) != 20 {
			t.Errorf("%s len(ESNull) = %d, want 20", s.Term, len(s.ESNull))
		}
	}
}

func TestModule_MissingCatalog(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(zap.NewNop(), Config{CatalogDir: t.TempDir()}),
		Module,
		fx.Invoke(func(*prerank.Client) {}),
	)
	if app.Err() == nil {
		t.Error("fx.New() should fail without a catalog manifest")
	}
}
