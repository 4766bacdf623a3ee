// Package separation isolates stems by running demucs as a subprocess.
package separation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/musictruth-cli/internal/adapters/driven/audio"
	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
	"github.com/custodia-labs/musictruth-cli/internal/logger"
)

// Ensure Demucs implements the interface.
var _ driven.StemSeparator = (*Demucs)(nil)

// DefaultModel is the demucs model used when none is configured.
const DefaultModel = "htdemucs"

// Config configures the demucs separator.
type Config struct {
	// Bin is the demucs binary. Empty uses "demucs" from PATH.
	Bin string

	// Model is the pretrained model name.
	Model string

	// WorkDir holds separated stems. Empty uses a fresh temp dir.
	WorkDir string

	// Runner executes demucs. Nil uses audio.ExecRunner.
	Runner audio.Runner
}

// Demucs separates all four stems in one run per unit and serves later
// stem requests for the same unit from the cached output.
type Demucs struct {
	bin     string
	model   string
	workDir string
	runner  audio.Runner
	ownDir  bool

	mu    sync.Mutex
	units map[string]*unitStems
	log   *logger.Logger
}

// unitStems guards one unit's separation so concurrent extractors
// asking for different stems share a single demucs run.
type unitStems struct {
	once sync.Once
	dir  string
	err  error
}

// NewDemucs creates a separator.
func NewDemucs(cfg Config) (*Demucs, error) {
	if cfg.Bin == "" {
		cfg.Bin = "demucs"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	own := false
	if cfg.WorkDir == "" {
		dir, err := os.MkdirTemp("", "musictruth-stems-*")
		if err != nil {
			return nil, fmt.Errorf("create stem dir: %w", err)
		}
		cfg.WorkDir = dir
		own = true
	}
	if cfg.Runner == nil {
		cfg.Runner = audio.ExecRunner{}
	}
	return &Demucs{
		bin:     cfg.Bin,
		model:   cfg.Model,
		workDir: cfg.WorkDir,
		runner:  cfg.Runner,
		ownDir:  own,
		units:   make(map[string]*unitStems),
		log:     logger.Named("separation"),
	}, nil
}

// Available reports whether the demucs binary is on PATH.
func (d *Demucs) Available() bool {
	_, err := exec.LookPath(d.bin)
	return err == nil
}

// Separate returns the requested stem for the unit.
func (d *Demucs) Separate(ctx context.Context, unit domain.AudioUnit, stem domain.Stem) (*domain.AudioBuffer, error) {
	if stem == domain.StemFullMix || stem == "" {
		return unit.Buffer, nil
	}
	if !stem.IsValid() {
		return nil, fmt.Errorf("%w: unknown stem %q", domain.ErrSeparationUnavailable, stem)
	}
	if _, ok := d.runner.(audio.ExecRunner); ok && !d.Available() {
		return nil, fmt.Errorf("%w: %s not installed", domain.ErrSeparationUnavailable, d.bin)
	}

	d.mu.Lock()
	u, ok := d.units[unit.ID]
	if !ok {
		u = &unitStems{}
		d.units[unit.ID] = u
	}
	d.mu.Unlock()

	u.once.Do(func() {
		u.dir, u.err = d.run(ctx, unit)
	})
	if u.err != nil {
		if ctx.Err() != nil {
			d.mu.Lock()
			if d.units[unit.ID] == u {
				delete(d.units, unit.ID)
			}
			d.mu.Unlock()
		}
		return nil, u.err
	}

	buf, err := audio.ReadWAVFile(filepath.Join(u.dir, stem.String()+".wav"))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s stem: %v", domain.ErrSeparationUnavailable, stem, err)
	}
	return buf, nil
}

// run separates one unit and returns the directory holding its stems.
// The unit's scratch dir is removed when separation fails.
func (d *Demucs) run(ctx context.Context, unit domain.AudioUnit) (dir string, err error) {
	unitDir, err := os.MkdirTemp(d.workDir, "unit-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSeparationUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(unitDir)
		}
	}()

	input := unit.SourcePath
	if input == "" || !audio.IsAudioFile(input) {
		if unit.Buffer == nil {
			return "", fmt.Errorf("%w: unit %s has no audio", domain.ErrSeparationUnavailable, unit.ID)
		}
		input = filepath.Join(unitDir, "input.wav")
		if err := audio.WriteWAVFile(input, unit.Buffer); err != nil {
			return "", fmt.Errorf("%w: stage input: %v", domain.ErrSeparationUnavailable, err)
		}
	}

	outRoot := filepath.Join(unitDir, "out")
	args := []string{"-n", d.model, "-o", outRoot, "--filename", "{stem}.{ext}", input}
	d.log.Debug().Str("unit", unit.ID).Str("model", d.model).Msg("running demucs")
	if _, err := d.runner.Run(ctx, d.bin, args...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: demucs failed: %v", domain.ErrSeparationUnavailable, err)
	}

	// demucs writes <out>/<model>/<stem>.wav with the filename template above.
	stemDir := filepath.Join(outRoot, d.model)
	if _, err := os.Stat(stemDir); err != nil {
		return "", fmt.Errorf("%w: demucs output not found", domain.ErrSeparationUnavailable)
	}
	return stemDir, nil
}

// Forget drops cached stems for a unit and deletes them from disk.
// A cached failure is dropped too, so the next Separate runs demucs again.
func (d *Demucs) Forget(unitID string) {
	d.mu.Lock()
	u := d.units[unitID]
	delete(d.units, unitID)
	d.mu.Unlock()
	if u != nil && u.dir != "" {
		// stemDir is <unitDir>/out/<model>.
		_ = os.RemoveAll(filepath.Dir(filepath.Dir(u.dir)))
	}
}

// Close removes separated stems when the work dir was created here.
func (d *Demucs) Close() error {
	d.mu.Lock()
	d.units = make(map[string]*unitStems)
	d.mu.Unlock()
	if !d.ownDir {
		return nil
	}
	if err := os.RemoveAll(d.workDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
