package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"chemviz/internal/api"
)

// ErrExportFailed wraps every export failure; exporting never mutates
// session or dataset state, so the caller only needs the one signal.
var ErrExportFailed = errors.New("export failed")

// Fetcher is the slice of the API client the trigger needs.
type Fetcher interface {
	FetchPDF(ctx context.Context, cred api.Credential, id int) ([]byte, error)
}

// Trigger fetches the report for a dataset and writes it into the
// download directory under a deterministic name.
type Trigger struct {
	fetcher Fetcher
	dir     string
	log     *zap.Logger
}

func NewTrigger(fetcher Fetcher, dir string, log *zap.Logger) *Trigger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Trigger{fetcher: fetcher, dir: dir, log: log}
}

// PDFFileName is the fixed naming scheme for exported reports.
func PDFFileName(id int) string {
	return fmt.Sprintf("dataset_%d_report.pdf", id)
}

// ExportPDF fetches the report for id and saves it. Returns the written
// path on success.
func (t *Trigger) ExportPDF(ctx context.Context, cred api.Credential, id int) (string, error) {
	data, err := t.fetcher.FetchPDF(ctx, cred, id)
	if err != nil {
		t.log.Warn("pdf fetch failed", zap.Int("dataset_id", id), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	path, err := t.save(PDFFileName(id), data)
	if err != nil {
		t.log.Warn("pdf save failed", zap.Int("dataset_id", id), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	t.log.Info("pdf exported", zap.Int("dataset_id", id), zap.String("path", path))
	return path, nil
}

func (t *Trigger) save(name string, data []byte) (string, error) {
	dir := t.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
