package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"chemviz/internal/api"
	"chemviz/internal/dataset"
)

// Local precondition failures. These short-circuit before any network call.
var (
	ErrNoFile       = errors.New("upload: no file selected")
	ErrNotCSV       = errors.New("upload: only .csv files can be uploaded")
	ErrNoCredential = errors.New("upload: not logged in")
	ErrBusy         = errors.New("upload: a submission is already in flight")
)

// Phase is the pipeline's state. A file is owned by the pipeline from
// Select until a terminal outcome; on failure it is retained so the same
// file can be resubmitted without re-selection.
type Phase int

const (
	Idle Phase = iota
	Selected
	InFlight
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Selected:
		return "selected"
	case InFlight:
		return "in flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "idle"
}

// Uploader is the slice of the API client the pipeline needs.
type Uploader interface {
	Upload(ctx context.Context, cred api.Credential, filename string, r io.Reader) error
}

// Pipeline validates a chosen file, submits it and reports the terminal
// state. No automatic retries: every failure stays terminal until the user
// acts.
type Pipeline struct {
	mu     sync.Mutex
	phase  Phase
	file   string
	reason error

	uploader Uploader
	datasets *dataset.Store
	log      *zap.Logger
}

func NewPipeline(uploader Uploader, datasets *dataset.Store, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{uploader: uploader, datasets: datasets, log: log}
}

// Select stages a local file. Only .csv files are accepted; selecting a
// new file replaces the previous one and clears a prior failure.
func (p *Pipeline) Select(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return ErrNotCSV
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == InFlight {
		return ErrBusy
	}
	p.file = path
	p.phase = Selected
	p.reason = nil
	return nil
}

// Submit sends the staged file. Missing file or credential is a local
// validation failure, not a network error; the gateway is never called.
// On success the file is released, the phase becomes Succeeded and the
// dataset store is refreshed with the same credential. On failure the
// phase becomes Failed with the file retained for a retry.
func (p *Pipeline) Submit(ctx context.Context, cred *api.Credential) error {
	p.mu.Lock()
	if p.phase == InFlight {
		p.mu.Unlock()
		return ErrBusy
	}
	if p.file == "" {
		p.mu.Unlock()
		return ErrNoFile
	}
	if cred == nil {
		p.mu.Unlock()
		return ErrNoCredential
	}
	file := p.file
	p.phase = InFlight
	p.mu.Unlock()

	err := p.send(ctx, *cred, file)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.phase = Failed
		p.reason = err
		p.log.Warn("upload failed", zap.String("file", file), zap.Error(err))
		return err
	}
	p.phase = Succeeded
	p.file = ""
	p.reason = nil
	p.log.Info("upload accepted", zap.String("file", file))
	return nil
}

func (p *Pipeline) send(ctx context.Context, cred api.Credential, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("upload: open %s: %w", filepath.Base(file), err)
	}
	defer f.Close()
	return p.uploader.Upload(ctx, cred, filepath.Base(file), f)
}

// RefreshAfterSuccess reloads the dataset store once a submission has been
// accepted. Kept separate from Submit so the caller controls when the
// refresh outcome is observed; a refresh failure here does not demote the
// upload's success.
func (p *Pipeline) RefreshAfterSuccess(ctx context.Context, cred api.Credential) error {
	return p.datasets.Refresh(ctx, cred)
}

// Retry re-stages the retained file after a failure.
func (p *Pipeline) Retry() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != Failed || p.file == "" {
		return ErrNoFile
	}
	p.phase = Selected
	p.reason = nil
	return nil
}

// Reset returns a terminal pipeline to Idle, dropping any staged file.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == InFlight {
		return
	}
	p.phase = Idle
	p.file = ""
	p.reason = nil
}

// State reports the phase, the staged file and the failure reason.
func (p *Pipeline) State() (Phase, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase, p.file, p.reason
}
