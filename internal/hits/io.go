package hits

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// ReadFile loads hits from a JSON file holding either an array of hits or
// one hit per line. Files ending in ".gz" are decompressed.
func ReadFile(path string) ([]*Hit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hits file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return Read(reader)
}

// Read decodes hits from r and validates each of them.
func Read(r io.Reader) ([]*Hit, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read hits: %w", err)
	}

	var result []*Hit
	dec := json.NewDecoder(br)
	if first == '[' {
		if err := dec.Decode(&result); err != nil {
			return nil, fmt.Errorf("decode hits: %w", err)
		}
	} else {
		for {
			var h Hit
			if err := dec.Decode(&h); err != nil {
				if err == io.EOF {
					break
				}
				return nil, fmt.Errorf("decode hit %d: %w", len(result)+1, err)
			}
			result = append(result, &h)
		}
	}

	for i, h := range result {
		if h == nil {
			return nil, fmt.Errorf("%w: entry %d is null", ErrInvalidHit, i+1)
		}
		if err := h.Validate(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// WriteFile writes hits as a JSON array.
func WriteFile(path string, hits []*Hit) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create hits file: %w", err)
	}
	if err := Write(f, hits); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes hits as a JSON array.
func Write(w io.Writer, hits []*Hit) error {
	if hits == nil {
		hits = []*Hit{}
	}
	if err := json.NewEncoder(w).Encode(hits); err != nil {
		return fmt.Errorf("encode hits: %w", err)
	}
	return nil
}

// Merge combines several hit collections into one without duplicates,
// sorted by chromosome, start, stop and accession.
func Merge(collections ...[]*Hit) []*Hit {
	seen := make(map[string]bool)
	var merged []*Hit
	for _, c := range collections {
		for _, h := range c {
			k := h.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, h)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Chromosome != b.Chromosome {
			return a.Chromosome < b.Chromosome
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Stop != b.Stop {
			return a.Stop < b.Stop
		}
		return a.Accession < b.Accession
	})
	return merged
}
