package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/httpsdash/internal/capture"
	"github.com/nao1215/httpsdash/internal/classify"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/profile"
)

// LoaderFunc loads one capture file.
type LoaderFunc func(path string) (*model.CaptureRecord, error)

// LoadCapturesStep loads the site's capture files into run.Site.
type LoadCapturesStep struct {
	load LoaderFunc
}

// LoadCapturesStepOption configures a LoadCapturesStep.
type LoadCapturesStepOption func(*LoadCapturesStep)

// WithLoader replaces capture.Load.
func WithLoader(load LoaderFunc) LoadCapturesStepOption {
	return func(s *LoadCapturesStep) {
		s.load = load
	}
}

// NewLoadCapturesStep creates a LoadCapturesStep.
func NewLoadCapturesStep(opts ...LoadCapturesStepOption) *LoadCapturesStep {
	s := &LoadCapturesStep{load: capture.Load}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LoadCapturesStep) Name() string {
	return "load_captures"
}

// Do loads the HTTP and HTTPS captures that were discovered for the site.
func (s *LoadCapturesStep) Do(_ context.Context, run *model.SiteRun) error {
	if run.Paths.HTTPPath == "" && run.Paths.HTTPSPath == "" {
		return &model.ParseError{Path: run.Paths.Name, Reason: "site has no capture file"}
	}

	site := &model.Site{
		Name:         run.Paths.Name,
		Availability: run.Paths.Availability(),
	}
	if path := run.Paths.HTTPPath; path != "" {
		record, err := s.load(path)
		if err != nil {
			return err
		}
		site.HTTP = record
	}
	if path := run.Paths.HTTPSPath; path != "" {
		record, err := s.load(path)
		if err != nil {
			return err
		}
		site.HTTPS = record
	}
	run.Site = site
	return nil
}

// ClassifyStep compares the site's captures object by object.
type ClassifyStep struct {
	logger *slog.Logger
}

// ClassifyStepOption configures a ClassifyStep.
type ClassifyStepOption func(*ClassifyStep)

// WithClassifyLogger sets the logger of the step.
func WithClassifyLogger(logger *slog.Logger) ClassifyStepOption {
	return func(s *ClassifyStep) {
		s.logger = logger
	}
}

// NewClassifyStep creates a ClassifyStep.
func NewClassifyStep(opts ...ClassifyStepOption) *ClassifyStep {
	s := &ClassifyStep{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do stores the comparison of the loaded captures in run.Comparison.
func (s *ClassifyStep) Do(_ context.Context, run *model.SiteRun) error {
	if run.Site == nil {
		return fmt.Errorf("classify %s: captures not loaded", run.Paths.Name)
	}
	cmp, err := classify.Compare(run.Site.HTTP, run.Site.HTTPS)
	if err != nil {
		return err
	}
	if cmp.Fallbacks > 0 {
		s.logger.Debug("objects without origin classified as same",
			"site", run.Paths.Name,
			"count", cmp.Fallbacks,
		)
	}
	run.Comparison = cmp
	return nil
}

// DigestHistory returns the profile digest stored for a site by the last
// run into an output directory, or "" when there is none.
type DigestHistory interface {
	LastDigest(ctx context.Context, outDir, site string) (string, error)
}

// ProfileStep builds the site's profile and writes it to a store.
type ProfileStep struct {
	store   *profile.Store
	history DigestHistory
	outDir  string
	logger  *slog.Logger
}

// ProfileStepOption configures a ProfileStep.
type ProfileStepOption func(*ProfileStep)

// WithHistory compares each written profile with the digest recorded for
// the same site by the last run into outDir.
func WithHistory(history DigestHistory, outDir string) ProfileStepOption {
	return func(s *ProfileStep) {
		s.history = history
		s.outDir = outDir
	}
}

// WithProfileLogger sets the logger of the step.
func WithProfileLogger(logger *slog.Logger) ProfileStepOption {
	return func(s *ProfileStep) {
		s.logger = logger
	}
}

// NewProfileStep creates a ProfileStep writing into store.
func NewProfileStep(store *profile.Store, opts ...ProfileStepOption) *ProfileStep {
	s := &ProfileStep{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ProfileStep) Name() string {
	return "profile"
}

// Do builds and persists the profile. A history lookup failure is logged
// and does not fail the site.
func (s *ProfileStep) Do(ctx context.Context, run *model.SiteRun) error {
	p, err := profile.Build(run.Site, run.Comparison)
	if err != nil {
		return err
	}
	path, digest, err := s.store.Save(run.Site, p)
	if err != nil {
		return err
	}
	run.Profile = p
	run.ProfilePath = path
	run.Digest = digest

	if s.history == nil {
		return nil
	}
	key := run.Site.SiteKey()
	previous, err := s.history.LastDigest(ctx, s.outDir, key)
	if err != nil {
		s.logger.Warn("failed to read profile history", "site", key, "error", err)
		return nil
	}
	run.PreviousDigest = previous
	switch {
	case previous == "":
		s.logger.Debug("profile is new", "site", key)
	case run.Changed():
		s.logger.Info("profile changed", "site", key)
	default:
		s.logger.Debug("profile unchanged", "site", key)
	}
	return nil
}

// DefaultSteps returns the steps that process one site into store.
func DefaultSteps(store *profile.Store, logger *slog.Logger, history DigestHistory, outDir string) []Step {
	profileOpts := []ProfileStepOption{WithProfileLogger(logger)}
	if history != nil {
		profileOpts = append(profileOpts, WithHistory(history, outDir))
	}
	return []Step{
		NewLoadCapturesStep(),
		NewClassifyStep(WithClassifyLogger(logger)),
		NewProfileStep(store, profileOpts...),
	}
}
