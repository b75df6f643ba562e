package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/AnyUserName/tgimg-decode/internal/encoder"
	"github.com/AnyUserName/tgimg-decode/internal/logging"
	"github.com/AnyUserName/tgimg-decode/internal/manifest"
	"github.com/AnyUserName/tgimg-decode/internal/profile"
)

// BatchConfig holds all parameters for a build run.
type BatchConfig struct {
	InputDir      string
	OutputDir     string
	Profile       profile.Profile
	Workers       int
	NoRegressSize bool // skip variants larger than the original file
}

// Batch decodes every image under a directory for each target box of a
// profile, encodes the variants and collects them into a manifest.
type Batch struct {
	cfg      BatchConfig
	decoder  *Decoder
	registry *encoder.Registry
	log      *slog.Logger
}

// NewBatch creates a configured batch over dec. A nil logger discards.
func NewBatch(cfg BatchConfig, dec *Decoder, registry *encoder.Registry, log *slog.Logger) *Batch {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Batch{cfg: cfg, decoder: dec, registry: registry, log: log}
}

// Run executes the build and returns the manifest. Per-image failures are
// recorded in the manifest; Run fails only when nothing could be processed
// or ctx is cancelled.
func (b *Batch) Run(ctx context.Context) (*manifest.Manifest, error) {
	b.log.Debug("encoder availability", "registry", b.registry.String())

	sources, err := ScanImages(b.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", b.cfg.InputDir)
	}
	b.log.Debug("found images", "count", len(sources))

	results := make([]processResult, len(sources))
	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = processResult{key: src.Key, err: err}
				return nil
			}
			b.log.Debug("processing", "key", src.Key)
			results[i] = b.processImage(ctx, src)
			if results[i].err == nil {
				b.log.Debug("done", "key", src.Key, "variants", len(results[i].asset.Variants))
			}
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prof := b.cfg.Profile
	m := manifest.New(prof.Name)

	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
			b.log.Error("image failed", "key", r.key, "err", r.err)
			m.Failures = append(m.Failures, manifest.Failure{Key: r.key, Reason: r.err.Error()})
			continue
		}
		m.Assets[r.key] = r.asset
		m.Stats.SkippedRegress += r.skippedRegress
	}

	// Partial failures don't fail the build.
	if failed == len(sources) {
		return nil, fmt.Errorf("all %d images failed to process", failed)
	}
	if failed > 0 {
		b.log.Warn("some images had errors", "failed", failed, "total", len(sources))
	}

	m.BuildInfo = &manifest.BuildInfo{
		Workers:   b.cfg.Workers,
		Fit:       prof.Fit.String(),
		Scale:     prof.Scale.String(),
		Subsample: prof.Subsample.String(),
		MaxSide:   prof.MaxSide,
	}
	m.ComputeStats()
	return m, nil
}
