// Package output writes run artifacts: the TOC, the sync report, the
// staged and consolidated extraction results, debug PDFs and metrics.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact subdirectories under the output root.
const (
	TOCDir     = "toc_json"
	SyncDir    = "sync_reports"
	JSONDir    = "json"
	StagingDir = "staging"
	DebugDir   = "debug"
	MetricsDir = "metrics"
)

// Debug export phases.
const (
	PhaseScout  = "scout"
	PhaseTOC    = "toc"
	PhaseLayout = "layout"
)

// Paths locates every artifact of one document under an output root.
type Paths struct {
	root string
	name string
}

// NewPaths derives artifact paths for the document at pdfPath.
func NewPaths(root, pdfPath string) Paths {
	return Paths{root: root, name: DocumentName(pdfPath)}
}

// DocumentName is the file name of pdfPath without its extension.
func DocumentName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Name returns the document name used in artifact file names.
func (p Paths) Name() string { return p.name }

// Root returns the output root.
func (p Paths) Root() string { return p.root }

func (p Paths) TOC() string {
	return filepath.Join(p.root, TOCDir, p.name+"_toc.json")
}

func (p Paths) SyncReport() string {
	return filepath.Join(p.root, SyncDir, p.name+"_sync_report.json")
}

func (p Paths) Result() string {
	return filepath.Join(p.root, JSONDir, p.name+"_result.json")
}

func (p Paths) Staging() string {
	return filepath.Join(p.root, StagingDir, p.name+".jsonl")
}

// Debug returns the debug PDF path for a phase.
func (p Paths) Debug(phase string) string {
	return filepath.Join(p.root, DebugDir, fmt.Sprintf("%s_%s_debug.pdf", p.name, phase))
}

func (p Paths) Metrics() string {
	return filepath.Join(p.root, MetricsDir, p.name+"_metrics.json")
}

// EnsureDirs creates the artifact directories that every run writes to.
// Debug and metrics directories are created on first write.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{TOCDir, SyncDir, JSONDir, StagingDir} {
		if err := os.MkdirAll(filepath.Join(p.root, dir), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return nil
}
