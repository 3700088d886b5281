// Package datastore handles the shared datastore tree on disk: staging
// incoming payloads, promoting them to canonical paths and walking the tree
// for reconciliation. An optional MinIO mirror receives archived versions.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/imap-mag/magvault/pkg/configs"
	mlog "github.com/imap-mag/magvault/pkg/log"
)

// OrphanDir is where the reconciler parks unindexed files, relative to the
// store root.
const OrphanDir = ".orphaned"

// Client operates on the datastore root.
type Client struct {
	root     string
	tempDir  string
	dirPerm  os.FileMode
	filePerm os.FileMode
	archive  *ArchiveClient
}

// StagedFile is a payload written to the staging area, not yet visible under
// a canonical path.
type StagedFile struct {
	TempPath string
	Checksum string // SHA-256, hex
	Size     int64
}

// New initializes the datastore client from the global configuration,
// creating the root and staging directories when missing.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().Store

	return NewWithConfig(ctx, &cfg)
}

// NewWithConfig initializes a datastore client for an explicit store config.
func NewWithConfig(ctx context.Context, cfg *configs.StoreConfig) (*Client, error) {
	c := &Client{
		root:     cfg.Root,
		tempDir:  cfg.TempPath(),
		dirPerm:  os.FileMode(cfg.DirPerm),
		filePerm: os.FileMode(cfg.FilePerm),
	}

	if err := os.MkdirAll(c.root, c.dirPerm); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}

	if err := os.MkdirAll(c.tempDir, c.dirPerm); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	if cfg.Archive.Enabled {
		ac, err := newArchiveClient(ctx, &cfg.Archive)
		if err != nil {
			return nil, err
		}

		c.archive = ac
	}

	mlog.Logger().Info().
		Str("root", c.root).
		Bool("archive", c.archive != nil).
		Msg("Datastore ready")

	return c, nil
}

// Root returns the datastore root directory.
func (c *Client) Root() string { return c.root }

// Archive returns the archive mirror client, nil when disabled.
func (c *Client) Archive() *ArchiveClient { return c.archive }

// abs resolves a store relative path, refusing escapes from the root.
func (c *Client) abs(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("path %q escapes the store root", rel)
	}

	return filepath.Join(c.root, clean), nil
}

// Stage writes a payload to the staging area and returns its temp location,
// checksum and size. The staged file is invisible to readers of the tree.
func (c *Client) Stage(ctx context.Context, r io.Reader) (*StagedFile, error) {
	tempPath := filepath.Join(c.tempDir, uuid.NewString()+".part")

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, c.filePerm)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	hasher := sha256.New()

	size, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		f.Close()
		os.Remove(tempPath)

		return nil, fmt.Errorf("write staging file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)

		return nil, fmt.Errorf("sync staging file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)

		return nil, fmt.Errorf("close staging file: %w", err)
	}

	return &StagedFile{
		TempPath: tempPath,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
		Size:     size,
	}, nil
}

// Promote atomically moves a staged file to its canonical relative path.
// The destination must not exist; versions are immutable once placed.
func (c *Client) Promote(staged *StagedFile, rel string) error {
	dst, err := c.abs(rel)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("destination %s already exists", rel)
	}

	if err := os.MkdirAll(filepath.Dir(dst), c.dirPerm); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	if err := os.Rename(staged.TempPath, dst); err != nil {
		return fmt.Errorf("promote %s: %w", rel, err)
	}

	return nil
}

// Discard removes a staged file that will not be promoted.
func (c *Client) Discard(staged *StagedFile) {
	if staged != nil {
		_ = os.Remove(staged.TempPath)
	}
}

// Open opens a stored file for reading.
func (c *Client) Open(rel string) (*os.File, error) {
	p, err := c.abs(rel)
	if err != nil {
		return nil, err
	}

	return os.Open(p)
}

// Stat returns file info for a stored path.
func (c *Client) Stat(rel string) (os.FileInfo, error) {
	p, err := c.abs(rel)
	if err != nil {
		return nil, err
	}

	return os.Stat(p)
}

// Exists reports whether a stored path is present.
func (c *Client) Exists(rel string) (bool, error) {
	_, err := c.Stat(rel)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// Checksum computes the SHA-256 of a stored file.
func (c *Client) Checksum(rel string) (string, error) {
	f, err := c.Open(rel)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("checksum %s: %w", rel, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Remove deletes a stored file and prunes empty parent directories up to the
// root.
func (c *Client) Remove(rel string) error {
	p, err := c.abs(rel)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		return fmt.Errorf("remove %s: %w", rel, err)
	}

	c.pruneEmptyDirs(filepath.Dir(p))

	return nil
}

// pruneEmptyDirs removes empty directories walking up toward the root.
func (c *Client) pruneEmptyDirs(dir string) {
	for dir != c.root && strings.HasPrefix(dir, c.root) {
		if err := os.Remove(dir); err != nil {
			return // not empty or in use
		}

		dir = filepath.Dir(dir)
	}
}

// CollectOrphan moves an unindexed file into the orphan directory, keeping
// its relative layout so it can be inspected or restored by hand.
func (c *Client) CollectOrphan(rel string) (string, error) {
	src, err := c.abs(rel)
	if err != nil {
		return "", err
	}

	destRel := filepath.ToSlash(filepath.Join(OrphanDir, rel))

	dst, err := c.abs(destRel)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(dst), c.dirPerm); err != nil {
		return "", fmt.Errorf("create orphan dir: %w", err)
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("collect orphan %s: %w", rel, err)
	}

	c.pruneEmptyDirs(filepath.Dir(src))

	return destRel, nil
}

// WalkFiles walks every regular file under the root, calling fn with the
// store relative path and file info. Staging and orphan areas are skipped.
func (c *Client) WalkFiles(ctx context.Context, fn func(rel string, info fs.FileInfo) error) error {
	skip := map[string]bool{}
	if strings.HasPrefix(c.tempDir, c.root) {
		skip[c.tempDir] = true
	}

	skip[filepath.Join(c.root, OrphanDir)] = true

	return filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if skip[p] || strings.HasPrefix(filepath.Base(p), ".") && p != c.root {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		return fn(filepath.ToSlash(rel), info)
	})
}

// HealthCheck verifies the root is reachable and writable.
func (c *Client) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(c.root)
	if err != nil {
		return fmt.Errorf("store root: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("store root %s is not a directory", c.root)
	}

	if c.archive != nil {
		return c.archive.HealthCheck(ctx)
	}

	return nil
}

// Close releases resources; the filesystem backend has none.
func (c *Client) Close() error {
	return nil
}
