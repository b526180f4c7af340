package atlas

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Artifact describes one persisted output file in the run manifest.
type Artifact struct {
	Name    string `json:"name"`
	Blake2b string `json:"blake2b"`
	Rows    int    `json:"rows"`
}

// WriteCrossTissueSignatures writes the cross-tissue table with the
// tissues field flattened to a comma-joined string.
func WriteCrossTissueSignatures(w io.Writer, sigs []CrossTissueSignature) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"gene", "n_tissues", "tissues", "avg_log2fc", "direction", "min_pval_adj", "combined_pval"}); err != nil {
		return err
	}
	for _, sig := range sigs {
		err := cw.Write([]string{
			sig.Gene,
			strconv.Itoa(sig.NTissues),
			strings.Join(sig.Tissues, ","),
			formatFloat(sig.AvgLog2FC),
			string(sig.Direction),
			formatFloat(sig.MinPValueAdj),
			formatFloat(sig.CombinedP),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveSignatures persists all signature artifacts under outdir:
// cross_tissue_signatures.csv, one <tissue>_specific_signatures.csv
// per tissue, signature_summary.json, and a manifest.json naming each
// file with its blake2b-256 checksum. extra artifacts (e.g. an
// overlap matrix written beforehand with SaveMatrix) are recorded in
// the same manifest. Re-running overwrites prior outputs at the same
// path.
func SaveSignatures(outdir string, cross []CrossTissueSignature, specific []TissueTable, summary *SignatureSummary, extra ...Artifact) error {
	if err := os.MkdirAll(outdir, 0777); err != nil {
		return err
	}
	var manifest []Artifact

	art, err := writeArtifact(outdir, "cross_tissue_signatures.csv", len(cross), func(w io.Writer) error {
		return WriteCrossTissueSignatures(w, cross)
	})
	if err != nil {
		return err
	}
	manifest = append(manifest, art)

	for _, t := range specific {
		t := t
		name := safeFilename(t.Tissue) + "_specific_signatures.csv"
		art, err := writeArtifact(outdir, name, len(t.Genes), func(w io.Writer) error {
			return WriteSignificantGenes(w, t.Genes)
		})
		if err != nil {
			return err
		}
		manifest = append(manifest, art)
	}

	art, err = writeArtifact(outdir, "signature_summary.json", 0, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	})
	if err != nil {
		return err
	}
	manifest = append(manifest, art)
	manifest = append(manifest, extra...)

	return writeManifest(outdir, manifest)
}

// SaveMatrix persists a matrix artifact under outdir and returns its
// manifest entry.
func SaveMatrix(outdir, name string, m *Matrix) (Artifact, error) {
	if err := os.MkdirAll(outdir, 0777); err != nil {
		return Artifact{}, err
	}
	return writeArtifact(outdir, name, len(m.Labels), m.WriteCSV)
}

func writeManifest(outdir string, manifest []Artifact) error {
	f, err := os.Create(filepath.Join(outdir, "manifest.json"))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return err
	}
	return f.Close()
}

func writeArtifact(outdir, name string, rows int, write func(io.Writer) error) (Artifact, error) {
	f, err := os.Create(filepath.Join(outdir, name))
	if err != nil {
		return Artifact{}, err
	}
	defer f.Close()
	hash, err := blake2b.New256(nil)
	if err != nil {
		return Artifact{}, err
	}
	if err := write(io.MultiWriter(f, hash)); err != nil {
		return Artifact{}, err
	}
	if err := f.Close(); err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Name:    name,
		Blake2b: fmt.Sprintf("%x", hash.Sum(nil)),
		Rows:    rows,
	}, nil
}

// safeFilename keeps tissue names usable as file name prefixes.
func safeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
}
