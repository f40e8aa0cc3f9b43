package romloader

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// openFunc opens the current archive entry for reading.
type openFunc func() (io.ReadCloser, error)

// visitFunc is called for each regular file in an archive. Returning true
// stops the walk.
type visitFunc func(name string, open openFunc) (bool, error)

// walkFunc iterates over the regular files of the archive at path.
type walkFunc func(path string, visit visitFunc) error

// imageMatch collects the first archive entry whose name matches.
type imageMatch struct {
	names []string
	data  []byte
	name  string
}

func (m *imageMatch) visit(name string, open openFunc) (bool, error) {
	if !isImageFile(name, m.names) {
		return false, nil
	}

	rc, err := open()
	if err != nil {
		return false, fmt.Errorf("failed to open %s in archive: %w", name, err)
	}
	defer rc.Close()

	data, err := limitedRead(rc)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	m.data = data
	m.name = filepath.Base(name)
	return true, nil
}

func (m *imageMatch) result() ([]byte, string, error) {
	if m.name == "" {
		return nil, "", ErrNoImageFile
	}
	return m.data, m.name, nil
}

// extractWith walks an archive and returns the first entry matching names.
func extractWith(walk walkFunc, path string, names []string) ([]byte, string, error) {
	m := &imageMatch{names: names}
	if err := walk(path, m.visit); err != nil {
		return nil, "", err
	}
	return m.result()
}

func walkZIP(path string, visit visitFunc) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if stop, err := visit(f.Name, f.Open); stop || err != nil {
			return err
		}
	}
	return nil
}

func walk7z(path string, visit visitFunc) error {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open 7z: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if stop, err := visit(f.Name, f.Open); stop || err != nil {
			return err
		}
	}
	return nil
}

// walkRAR reads entries in stream order; each entry's data is the reader
// itself until Next is called.
func walkRAR(path string, visit visitFunc) error {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open rar: %w", err)
	}
	defer r.Close()

	open := func() (io.ReadCloser, error) { return io.NopCloser(r), nil }
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read rar entry: %w", err)
		}
		if header.IsDir {
			continue
		}
		if stop, err := visit(header.Name, open); stop || err != nil {
			return err
		}
	}
}

// walkTar walks a tar stream, typically the inside of a .tar.gz.
func walkTar(r io.Reader, visit visitFunc) error {
	tr := tar.NewReader(r)
	open := func() (io.ReadCloser, error) { return io.NopCloser(tr), nil }
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if stop, err := visit(header.Name, open); stop || err != nil {
			return err
		}
	}
}
