package atlas

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// openInput opens an input table. "-" means stdin; a .gz suffix gets
// transparent pgzip decompression.
func openInput(filename string, stdin io.Reader) (io.ReadCloser, error) {
	if filename == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(filename, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &gzReadCloser{gz: gz, file: f}, nil
}

type gzReadCloser struct {
	gz   *pgzip.Reader
	file *os.File
}

func (r *gzReadCloser) Read(p []byte) (int, error) { return r.gz.Read(p) }

func (r *gzReadCloser) Close() error {
	err := r.gz.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// createOutput creates (or truncates) an output file. "-" means
// stdout; a .gz suffix gets pgzip compression.
func createOutput(filename string, stdout io.Writer) (io.WriteCloser, error) {
	if filename == "-" {
		return nopCloser{stdout}, nil
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(filename, ".gz") {
		return f, nil
	}
	return &gzWriteCloser{gz: pgzip.NewWriter(f), file: f}, nil
}

type gzWriteCloser struct {
	gz   *pgzip.Writer
	file *os.File
}

func (w *gzWriteCloser) Write(p []byte) (int, error) { return w.gz.Write(p) }

func (w *gzWriteCloser) Close() error {
	err := w.gz.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type tissueFile struct {
	Tissue string
	Path   string
}

// parseTissueArgs turns positional "tissue=path" arguments into an
// ordered list. The order given on the command line is the order used
// for all first-seen tie-breaking downstream.
func parseTissueArgs(args []string) ([]tissueFile, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no input tables given (expected tissue=path arguments)")
	}
	seen := map[string]bool{}
	files := make([]tissueFile, 0, len(args))
	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid argument %q (expected tissue=path)", arg)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate tissue name %q", name)
		}
		seen[name] = true
		files = append(files, tissueFile{Tissue: name, Path: path})
	}
	return files, nil
}
