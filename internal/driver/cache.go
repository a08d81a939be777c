package driver

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"minisynth/internal/netlist"
	"minisynth/internal/project"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores synthesized netlists on disk keyed by source content,
// target and GC mode. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached synthesis result.
type DiskPayload struct {
	Schema uint16
	// Netlist schema the snapshot bytes were written with.
	SnapshotVersion int

	Target string
	Name   string
	GC     string
	// Removed is the number of components the GC passes dropped.
	Removed int

	Snapshot []byte
}

// CacheKey identifies a result: the source hash, the target text and the
// collection mode all feed it.
type CacheKey uint64

// NewCacheKey hashes the inputs that decide a synthesis result.
func NewCacheKey(sourceHash [32]byte, target string, gc project.GCMode) CacheKey {
	h := xxhash.New()
	_, _ = h.Write(sourceHash[:])
	_, _ = h.WriteString(target)
	_, _ = h.Write([]byte{0, byte(gc)})
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	_, _ = h.Write(schema[:])
	return CacheKey(h.Sum64())
}

func (k CacheKey) String() string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(k))
	return hex.EncodeToString(b[:])
}

// OpenDiskCache creates dir if needed and returns a cache rooted there.
// An empty dir selects the user cache location.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, cacheError("", err)
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "minisynth")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cacheError(dir, err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, "netlists", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key CacheKey, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return cacheError(p, err)
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return cacheError(p, err)
	}
	defer func() {
		// after a successful rename the temp name is gone
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = cacheError(f.Name(), rmErr)
		}
	}()

	payload.Schema = diskCacheSchemaVersion
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return cacheError(p, err)
	}
	if err := f.Close(); err != nil {
		return cacheError(p, err)
	}
	if err := os.Rename(f.Name(), p); err != nil {
		return cacheError(p, err)
	}
	return nil
}

// Get reads the payload stored under key. Entries written with another
// schema read as a miss.
func (c *DiskCache) Get(key CacheKey, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, cacheError(p, err)
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, cacheError(p, err)
	}
	if out.Schema != diskCacheSchemaVersion || out.SnapshotVersion != netlist.SnapshotVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(c.dir, "netlists")); err != nil {
		return cacheError(c.dir, err)
	}
	return nil
}

// store encodes a synthesized netlist under key.
func (c *DiskCache) store(key CacheKey, tr *TargetResult) error {
	if c == nil {
		return nil
	}
	data, err := tr.Netlist.MarshalSnapshot(tr.Root)
	if err != nil {
		return cacheError(c.pathFor(key), err)
	}
	return c.Put(key, &DiskPayload{
		SnapshotVersion: netlist.SnapshotVersion,
		Target:          tr.Target,
		Name:            tr.Name,
		GC:              tr.GC.String(),
		Removed:         tr.Removed,
		Snapshot:        data,
	})
}

// load restores a cached netlist into tr. It reports false on a miss.
func (c *DiskCache) load(key CacheKey, tr *TargetResult) (bool, error) {
	var payload DiskPayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok {
		return false, err
	}
	if payload.Target != tr.Target {
		return false, nil
	}
	n, root, err := netlist.UnmarshalSnapshot(payload.Snapshot)
	if err != nil {
		return false, cacheError(c.pathFor(key), err)
	}
	tr.Netlist, tr.Root, tr.Name = n, root, payload.Name
	tr.Removed = payload.Removed
	tr.Cached = true
	return true, nil
}
