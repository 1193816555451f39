package catalog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// stampLayout is the path-safe capture stamp used for cache directories
const stampLayout = "2006-01-02T15-04-05Z"

// PageCache persists raw search pages per location and capture on disk.
// Layout: <dir>/<location-slug>/<stamp>/page-<n>.json.gz plus one
// capture.meta sidecar per capture. The watcher writes through it and the
// backfill command replays it, so a wiped database can be rebuilt without
// re-hitting the catalog
type PageCache struct {
	dir             string
	retainMaxAge    time.Duration
	retainMaxBytes  int64
	lastCleanupUnix atomic.Int64
}

// captureMeta is a tiny sidecar json with fields we actually use
type captureMeta struct {
	Location   string    `json:"location"`
	CapturedAt time.Time `json:"captured_at"`
	Pages      int       `json:"pages"`
	Bytes      int64     `json:"bytes"`
	StoredAt   time.Time `json:"stored_at"`
}

// CacheOption configures the cache
type CacheOption func(*PageCache)

// WithRetention sets optional age and size retention
// Pass zero to disable either dimension
func WithRetention(maxAge time.Duration, maxBytes int64) CacheOption {
	return func(c *PageCache) {
		c.retainMaxAge = maxAge
		c.retainMaxBytes = maxBytes
	}
}

// NewPageCache builds a cache rooted at dir, which is created eagerly
func NewPageCache(dir string, opts ...CacheOption) *PageCache {
	_ = os.MkdirAll(dir, 0o755)
	c := &PageCache{dir: dir}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Store writes one raw page under the capture stamp, gzipped and atomic
func (c *PageCache) Store(location string, capturedAt time.Time, page int, raw []byte) error {
	capDir := filepath.Join(c.dir, location, capturedAt.UTC().Format(stampLayout))
	if err := os.MkdirAll(capDir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(capDir, fmt.Sprintf("page-%d.json.gz", page))
	tmp := path + ".part"

	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	_, werr := zw.Write(raw)
	zerr := zw.Close()
	cerr := out.Close()
	if werr != nil || zerr != nil || cerr != nil {
		_ = os.Remove(tmp)
		if werr != nil {
			return werr
		}
		if zerr != nil {
			return zerr
		}
		return cerr
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	c.bumpMeta(capDir, location, capturedAt, page, int64(len(raw)))
	c.maybeCleanup()
	return nil
}

// bumpMeta keeps the capture sidecar in sync; best effort only
func (c *PageCache) bumpMeta(capDir, location string, capturedAt time.Time, page int, n int64) {
	metaPath := filepath.Join(capDir, "capture.meta")
	meta, _ := loadCaptureMeta(metaPath)
	if meta == nil {
		meta = &captureMeta{Location: location, CapturedAt: capturedAt.UTC()}
	}
	if page+1 > meta.Pages {
		meta.Pages = page + 1
	}
	meta.Bytes += n
	meta.StoredAt = time.Now().UTC()
	_ = saveCaptureMeta(metaPath, meta)
}

// Locations lists cached location slugs, sorted
func (c *PageCache) Locations() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Captures lists capture stamps for a location, ascending
func (c *PageCache) Captures(location string) ([]time.Time, error) {
	entries, err := os.ReadDir(filepath.Join(c.dir, location))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if ts, ok := parseStampFromName(e.Name()); ok {
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Load returns the raw pages of one capture in page order, gunzipped
func (c *PageCache) Load(location string, capturedAt time.Time) ([][]byte, error) {
	capDir := filepath.Join(c.dir, location, capturedAt.UTC().Format(stampLayout))
	entries, err := os.ReadDir(capDir)
	if err != nil {
		return nil, err
	}

	type pageFile struct {
		n    int
		path string
	}
	var files []pageFile
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "page-") || !strings.HasSuffix(name, ".json.gz") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page-"), ".json.gz"))
		if err != nil {
			continue
		}
		files = append(files, pageFile{n: num, path: filepath.Join(capDir, name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	out := make([][]byte, 0, len(files))
	for _, pf := range files {
		raw, err := readGzip(pf.path)
		if err != nil {
			return nil, fmt.Errorf("catalog cache: read %s: %w", pf.path, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

func readGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	b, rerr := io.ReadAll(zr)
	if cerr := zr.Close(); rerr == nil && cerr != nil {
		rerr = cerr
	}
	if rerr != nil {
		return nil, rerr
	}
	return b, nil
}

// loadCaptureMeta reads a sidecar json file
func loadCaptureMeta(path string) (*captureMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var m captureMeta
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// saveCaptureMeta writes the sidecar json atomically
func saveCaptureMeta(path string, m *captureMeta) error {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(m); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// maybeCleanup throttles retention cleanup to once per ten minutes
func (c *PageCache) maybeCleanup() {
	now := time.Now().Unix()
	last := c.lastCleanupUnix.Load()
	if last != 0 && now-last < 600 {
		return
	}
	if c.retainMaxAge <= 0 && c.retainMaxBytes <= 0 {
		return
	}
	if !c.lastCleanupUnix.CompareAndSwap(last, now) {
		return
	}
	_ = c.cleanupOnce()
}

// cleanupOnce applies age and size retention across capture directories
func (c *PageCache) cleanupOnce() error {
	locs, err := c.Locations()
	if err != nil {
		return err
	}

	type item struct {
		Path  string
		Size  int64
		Stamp time.Time
	}
	var items []item
	var total int64
	cutoff := time.Now().Add(-c.retainMaxAge)

	for _, loc := range locs {
		locDir := filepath.Join(c.dir, loc)
		entries, err := os.ReadDir(locDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			ts, ok := parseStampFromName(e.Name())
			if !ok {
				continue
			}
			full := filepath.Join(locDir, e.Name())
			if c.retainMaxAge > 0 && ts.Before(cutoff) {
				_ = os.RemoveAll(full)
				continue
			}
			size := dirSize(full)
			items = append(items, item{Path: full, Size: size, Stamp: ts})
			total += size
		}
	}

	if c.retainMaxBytes > 0 && total > c.retainMaxBytes {
		sort.Slice(items, func(i, j int) bool { return items[i].Stamp.Before(items[j].Stamp) })
		for _, it := range items {
			if total <= c.retainMaxBytes {
				break
			}
			_ = os.RemoveAll(it.Path)
			total -= it.Size
		}
	}
	return nil
}

func dirSize(dir string) int64 {
	var total int64
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	for _, e := range entries {
		if fi, err := e.Info(); err == nil && fi.Mode().IsRegular() {
			total += fi.Size()
		}
	}
	return total
}

// parseStampFromName parses the capture stamp from a directory name
func parseStampFromName(name string) (time.Time, bool) {
	t, err := time.Parse(stampLayout, name)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
