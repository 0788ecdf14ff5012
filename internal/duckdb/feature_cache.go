package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/genome-mapping/internal/features"
)

// Fingerprint holds the stat-based identity of an annotation file plus the
// loader settings that shaped the parsed result.
type Fingerprint struct {
	Path     string
	Size     int64
	ModTime  time.Time
	Settings string
}

// StatAnnotation fingerprints an on-disk annotation file.
func StatAnnotation(path, settings string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Fingerprint{
		Path:     path,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Settings: settings,
	}, nil
}

func (fp Fingerprint) meta() map[string]string {
	return map[string]string{
		"source":   fp.Path,
		"size":     strconv.FormatInt(fp.Size, 10),
		"modtime":  fp.ModTime.UTC().Format(time.RFC3339Nano),
		"settings": fp.Settings,
	}
}

// FeatureCache keeps aggregated features as gob files so that large
// annotation files are parsed once:
//
//	{dir}/{annotation}.features.gob       (serialized features)
//	{dir}/{annotation}.features.gob.meta  (source fingerprint)
type FeatureCache struct {
	dir  string
	name string
}

// NewFeatureCache creates a cache in dir for the given annotation file.
func NewFeatureCache(dir, annotationPath string) *FeatureCache {
	return &FeatureCache{dir: dir, name: filepath.Base(annotationPath)}
}

func (fc *FeatureCache) gobPath() string {
	return filepath.Join(fc.dir, fc.name+".features.gob")
}

func (fc *FeatureCache) metaPath() string {
	return fc.gobPath() + ".meta"
}

// Valid checks whether the cached features match the annotation file.
func (fc *FeatureCache) Valid(fp Fingerprint) bool {
	meta, err := fc.readMeta()
	if err != nil {
		return false
	}
	for k, v := range fp.meta() {
		if meta[k] != v {
			return false
		}
	}

	if _, err := os.Stat(fc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads serialized features from disk.
func (fc *FeatureCache) Load() ([]*features.FeatureData, error) {
	f, err := os.Open(fc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open feature cache: %w", err)
	}
	defer f.Close()

	var feats []*features.FeatureData
	if err := gob.NewDecoder(f).Decode(&feats); err != nil {
		return nil, fmt.Errorf("decode feature cache: %w", err)
	}
	return feats, nil
}

// Write serializes features to disk along with the source fingerprint.
func (fc *FeatureCache) Write(feats []*features.FeatureData, fp Fingerprint) error {
	if err := os.MkdirAll(fc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(fc.gobPath())
	if err != nil {
		return fmt.Errorf("create feature cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(feats); err != nil {
		f.Close()
		os.Remove(fc.gobPath())
		return fmt.Errorf("encode feature cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close feature cache: %w", err)
	}

	return fc.writeMeta(fp)
}

// Clear removes the cached files.
func (fc *FeatureCache) Clear() {
	os.Remove(fc.gobPath())
	os.Remove(fc.metaPath())
}

func (fc *FeatureCache) writeMeta(fp Fingerprint) error {
	meta := fp.meta()
	lines := []string{
		"source=" + meta["source"],
		"size=" + meta["size"],
		"modtime=" + meta["modtime"],
		"settings=" + meta["settings"],
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(fc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (fc *FeatureCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(fc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
