package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"

	"reneu/pkg/dendrogram"
	"reneu/pkg/errors"
	"reneu/pkg/skeleton"
)

const dendrogramExt = ".dend"

// FileStore keeps one file per object:
//
//	<root>/skeletons/<segid>
//	<root>/dendrograms/<name>.dend
type FileStore struct {
	root string
}

// NewFileStore creates the directory layout under root if needed.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{"skeletons", "dendrograms"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) skeletonPath(segid uint64) string {
	return filepath.Join(s.root, "skeletons", strconv.FormatUint(segid, 10))
}

func (s *FileStore) dendrogramPath(name string) string {
	return filepath.Join(s.root, "dendrograms", name+dendrogramExt)
}

func (s *FileStore) PutSkeleton(ctx context.Context, segid uint64, t *skeleton.Tree) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := skeleton.EncodePrecomputed(t)
	if err := writeFileAtomic(s.skeletonPath(segid), buf); err != nil {
		return fmt.Errorf("put skeleton %d: %w", segid, err)
	}
	log.Debug("stored skeleton", "segid", segid, "nodes", t.NodeCount(), "bytes", len(buf))
	return nil
}

func (s *FileStore) GetSkeleton(ctx context.Context, segid uint64) (*skeleton.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := readFile(s.skeletonPath(segid), "skeleton %d", segid)
	if err != nil {
		return nil, err
	}
	return skeleton.DecodePrecomputed(buf)
}

func (s *FileStore) DeleteSkeleton(ctx context.Context, segid uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.skeletonPath(segid)); err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeNotFound, "skeleton %d", segid)
		}
		return fmt.Errorf("delete skeleton %d: %w", segid, err)
	}
	return nil
}

func (s *FileStore) ListSkeletons(ctx context.Context) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, "skeletons"))
	if err != nil {
		return nil, fmt.Errorf("list skeletons: %w", err)
	}
	var ids []uint64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		// Skips leftover .tmp files and anything else not named by an id.
		id, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *FileStore) PutDendrogram(ctx context.Context, name string, d *dendrogram.Dendrogram) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	data, err := d.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode dendrogram %q: %w", name, err)
	}
	if err := writeFileAtomic(s.dendrogramPath(name), data); err != nil {
		return fmt.Errorf("put dendrogram %q: %w", name, err)
	}
	log.Debug("stored dendrogram", "name", name, "edges", d.EdgeNum(), "bytes", len(data))
	return nil
}

func (s *FileStore) GetDendrogram(ctx context.Context, name string) (*dendrogram.Dendrogram, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := readFile(s.dendrogramPath(name), "dendrogram %q", name)
	if err != nil {
		return nil, err
	}
	return decodeDendrogram(data)
}

func (s *FileStore) Close() error { return nil }

// writeFileAtomic writes data to path+".tmp" and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func readFile(path, what string, args ...any) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, what, args...)
		}
		return nil, fmt.Errorf("read %s: %w", fmt.Sprintf(what, args...), err)
	}
	return data, nil
}
