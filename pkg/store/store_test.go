package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"reneu/pkg/config"
	"reneu/pkg/dendrogram"
	"reneu/pkg/errors"
	"reneu/pkg/skeleton"
)

func testTree(t *testing.T) *skeleton.Tree {
	t.Helper()
	tree, err := skeleton.Build(
		[]skeleton.Node{
			{Radius: 2, Z: 0, Y: 0, X: 0},
			{Radius: 1, Z: 0, Y: 0, X: 4},
			{Radius: 1, Z: 0, Y: 3, X: 4},
		},
		[]int32{-1, 0, 1},
		[]skeleton.Class{skeleton.ClassSoma, skeleton.ClassAxon, skeleton.ClassAxon},
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := Open(config.Store{Kind: config.StoreFile, Path: filepath.Join(dir, "files")})
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	db, err := Open(config.Store{Kind: config.StoreSQLite, Path: filepath.Join(dir, "db", "reneu.db")})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		fs.Close()
		db.Close()
	})
	return map[string]Store{"file": fs, "sqlite": db}
}

func TestSkeletons(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			tree := testTree(t)

			if _, err := s.GetSkeleton(ctx, 7); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("GetSkeleton(missing) err = %v, want NOT_FOUND", err)
			}

			big := uint64(math.MaxUint64 - 1)
			for _, id := range []uint64{42, 7, big} {
				if err := s.PutSkeleton(ctx, id, tree); err != nil {
					t.Fatalf("PutSkeleton(%d): %v", id, err)
				}
			}

			got, err := s.GetSkeleton(ctx, big)
			if err != nil {
				t.Fatalf("GetSkeleton: %v", err)
			}
			if !tree.Equals(got, skeleton.DefaultTolerance) {
				t.Error("stored skeleton differs")
			}

			ids, err := s.ListSkeletons(ctx)
			if err != nil {
				t.Fatalf("ListSkeletons: %v", err)
			}
			if want := []uint64{7, 42, big}; !slices.Equal(ids, want) {
				t.Errorf("ListSkeletons = %v, want %v", ids, want)
			}

			// Overwrite keeps a single entry.
			tree.SetClass(2, skeleton.ClassBasalDendrite)
			if err := s.PutSkeleton(ctx, 42, tree); err != nil {
				t.Fatalf("PutSkeleton: %v", err)
			}
			got, err = s.GetSkeleton(ctx, 42)
			if err != nil {
				t.Fatalf("GetSkeleton: %v", err)
			}
			if got.Attrs[2].Class != skeleton.ClassBasalDendrite {
				t.Errorf("Class = %v after overwrite", got.Attrs[2].Class)
			}

			if err := s.DeleteSkeleton(ctx, 7); err != nil {
				t.Fatalf("DeleteSkeleton: %v", err)
			}
			if err := s.DeleteSkeleton(ctx, 7); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("second DeleteSkeleton err = %v, want NOT_FOUND", err)
			}
			ids, _ = s.ListSkeletons(ctx)
			if want := []uint64{42, big}; !slices.Equal(ids, want) {
				t.Errorf("ListSkeletons = %v, want %v", ids, want)
			}
		})
	}
}

func TestDendrograms(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			d := dendrogram.New(0.3)
			d.PushEdge(1, 2, 0.1)
			d.PushEdge(2, 3, 0.4)

			if err := s.PutDendrogram(ctx, "chunk-0_0_0", d); err != nil {
				t.Fatalf("PutDendrogram: %v", err)
			}
			got, err := s.GetDendrogram(ctx, "chunk-0_0_0")
			if err != nil {
				t.Fatalf("GetDendrogram: %v", err)
			}
			if got.Threshold() != d.Threshold() || !slices.Equal(got.Edges(), d.Edges()) {
				t.Errorf("stored dendrogram differs:\n%s", got)
			}

			if _, err := s.GetDendrogram(ctx, "absent"); !errors.Is(err, errors.ErrCodeNotFound) {
				t.Errorf("missing dendrogram err = %v, want NOT_FOUND", err)
			}
			for _, bad := range []string{"", "..", "a/b", `a\b`} {
				if err := s.PutDendrogram(ctx, bad, d); !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("PutDendrogram(%q) err = %v, want INVALID_INPUT", bad, err)
				}
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := s.PutSkeleton(ctx, 99, testTree(t)); err != nil {
		t.Fatalf("PutSkeleton: %v", err)
	}
	if err := s.PutDendrogram(ctx, "merged", dendrogram.New(0.5)); err != nil {
		t.Fatalf("PutDendrogram: %v", err)
	}

	for _, rel := range []string{"skeletons/99", "dendrograms/merged.dend"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Errorf("%s: %v", rel, err)
		}
	}
	// No temp files are left behind.
	matches, _ := filepath.Glob(filepath.Join(root, "*", "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}

	// Stray files are not listed.
	os.WriteFile(filepath.Join(root, "skeletons", "notes.txt"), []byte("x"), 0o644)
	ids, err := s.ListSkeletons(ctx)
	if err != nil {
		t.Fatalf("ListSkeletons: %v", err)
	}
	if !slices.Equal(ids, []uint64{99}) {
		t.Errorf("ListSkeletons = %v, want [99]", ids)
	}
}

func TestFileStoreCorruptSkeleton(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	os.WriteFile(filepath.Join(root, "skeletons", "5"), []byte{1, 2, 3}, 0o644)

	if _, err := s.GetSkeleton(context.Background(), 5); !errors.Is(err, errors.ErrCodeTruncatedBuffer) {
		t.Errorf("err = %v, want TRUNCATED_BUFFER", err)
	}
}

func TestFileStoreCanceledContext(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.PutSkeleton(ctx, 1, testTree(t)); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open(config.Store{Kind: "s3", Path: "x"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
