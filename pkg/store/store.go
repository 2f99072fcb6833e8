// Package store persists skeletons and dendrograms.
//
// Skeletons are stored as precomputed buffers keyed by segment id and
// dendrograms in their binary form keyed by name. Two backends exist: a
// directory of files and a single SQLite database.
package store

import (
	"context"
	"strings"

	"reneu/pkg/config"
	"reneu/pkg/dendrogram"
	"reneu/pkg/errors"
	"reneu/pkg/skeleton"
)

// Store is the persistence boundary used by the API server and the CLI.
// Missing keys are reported with errors.ErrCodeNotFound.
type Store interface {
	PutSkeleton(ctx context.Context, segid uint64, t *skeleton.Tree) error
	GetSkeleton(ctx context.Context, segid uint64) (*skeleton.Tree, error)
	DeleteSkeleton(ctx context.Context, segid uint64) error
	ListSkeletons(ctx context.Context) ([]uint64, error)

	PutDendrogram(ctx context.Context, name string, d *dendrogram.Dendrogram) error
	GetDendrogram(ctx context.Context, name string) (*dendrogram.Dendrogram, error)

	Close() error
}

// Open returns the backend selected by cfg.Kind.
func Open(cfg config.Store) (Store, error) {
	switch cfg.Kind {
	case config.StoreFile:
		return NewFileStore(cfg.Path)
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store kind %q", cfg.Kind)
	}
}

// validName rejects dendrogram names that could escape a directory.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid dendrogram name %q", name)
	}
	return nil
}

func decodeDendrogram(data []byte) (*dendrogram.Dendrogram, error) {
	d := new(dendrogram.Dendrogram)
	if err := d.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return d, nil
}
