// Package model wraps the trained attrition classifier: artifact loading,
// probability scoring and the fixed-threshold decision.
package model

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/futurisys/attrition/internal/domain/features"
)

// PositiveClass is the label for the "will leave" outcome.
const PositiveClass = 1

// decisionThreshold is the calibrated operating point selected during
// training. It is intentionally far from 0.5 and must not be changed
// without re-calibration.
const decisionThreshold = 0.125930

const defaultFetchTimeout = 30 * time.Second

// Predictor scores one feature vector at a time.
type Predictor interface {
	// PredictProba returns the probability of the positive class.
	PredictProba(ctx context.Context, v features.Vector) (float64, error)

	// PredictLabel applies the fixed decision threshold: 1 iff the
	// positive-class probability is >= the threshold.
	PredictLabel(ctx context.Context, v features.Vector) (int, error)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPath sets the local artifact path.
func WithPath(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.path = path
		}
	}
}

// WithFetchURL sets the remote location the artifact is fetched from, once,
// when the local path does not exist yet.
func WithFetchURL(url string) Option {
	return func(e *Engine) {
		e.fetchURL = url
	}
}

// WithHTTPClient overrides the client used for the one-time artifact fetch.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) {
		if c != nil {
			e.client = c
		}
	}
}

// Engine implements Predictor over a lazily loaded artifact. The load path
// is mutex-guarded so concurrent first calls load the artifact at most once
// and all callers observe the same instance.
type Engine struct {
	path     string
	fetchURL string
	client   *http.Client

	mu       sync.Mutex
	artifact *Artifact
}

var _ Predictor = (*Engine)(nil)

// New creates an Engine with the given options. The artifact is not loaded
// until Load or the first prediction.
func New(opts ...Option) *Engine {
	e := &Engine{
		path:   "models/model.json",
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load loads the artifact if it is not loaded yet. Safe for concurrent use.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx)
}

func (e *Engine) loadLocked(ctx context.Context) error {
	if e.artifact != nil {
		return nil
	}
	if _, err := os.Stat(e.path); os.IsNotExist(err) && e.fetchURL != "" {
		if err := e.fetch(ctx); err != nil {
			return err
		}
	}
	a, err := ReadArtifact(e.path)
	if err != nil {
		return err
	}
	e.artifact = a
	return nil
}

// fetch downloads the artifact to the configured path. One-time startup
// concern; the caller holds the load mutex.
func (e *Engine) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.fetchURL, nil)
	if err != nil {
		return fmt.Errorf("fetch artifact: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch artifact: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch artifact: unexpected status %s", resp.Status)
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("fetch artifact: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".model-*")
	if err != nil {
		return fmt.Errorf("fetch artifact: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("fetch artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fetch artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("fetch artifact: %w", err)
	}
	return nil
}

// PredictProba returns the probability mass assigned to PositiveClass,
// loading the artifact first if needed.
func (e *Engine) PredictProba(ctx context.Context, v features.Vector) (float64, error) {
	e.mu.Lock()
	if err := e.loadLocked(ctx); err != nil {
		e.mu.Unlock()
		return 0, err
	}
	a := e.artifact
	e.mu.Unlock()

	s := sigmoid(a.decision(v))
	// Class probabilities follow the artifact's class order: the sigmoid
	// output belongs to the second class.
	probs := [2]float64{1 - s, s}
	for i, class := range a.Classes {
		if class == PositiveClass {
			return probs[i], nil
		}
	}
	return 0, fmt.Errorf("%w: classes %v", ErrPositiveClassAbsent, a.Classes)
}

// PredictLabel computes the binary label at the fixed threshold.
func (e *Engine) PredictLabel(ctx context.Context, v features.Vector) (int, error) {
	p, err := e.PredictProba(ctx, v)
	if err != nil {
		return 0, err
	}
	return LabelFor(p), nil
}

// LabelFor maps a positive-class probability onto the binary decision at the
// calibrated threshold. Inclusive: a probability equal to the threshold is
// positive.
func LabelFor(p float64) int {
	if p >= decisionThreshold {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
