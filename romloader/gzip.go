package romloader

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// extractFromGzip extracts the first matching image from a gzip or tar.gz
// archive. A plain .gz is accepted when the name left after stripping the
// suffix matches.
func extractFromGzip(path string, names []string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	lowerPath := strings.ToLower(path)
	if strings.HasSuffix(lowerPath, ".tar.gz") || strings.HasSuffix(lowerPath, ".tgz") {
		m := &imageMatch{names: names}
		if err := walkTar(gr, m.visit); err != nil {
			return nil, "", err
		}
		return m.result()
	}

	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-3]
	}
	if !isImageFile(name, names) {
		return nil, "", ErrNoImageFile
	}

	data, err := limitedRead(gr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decompress gzip: %w", err)
	}
	return data, name, nil
}
