package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/audit-tools/fee-atlas/pkg/models/domain"
	"github.com/google/uuid"
)

// Detector is one rule-based detection module. Implementations are pure
// functions over their inputs and must be independently testable.
type Detector interface {
	// ID returns the stable module identifier used for toggling.
	ID() string
	// Label is the human-readable module name used in progress reporting.
	Label() string
	Detect(
		ctx context.Context,
		txs []domain.Transaction,
		bank domain.BankConditions,
		th domain.DetectionThresholds,
	) ([]domain.Anomaly, error)
}

// Registry holds the registered detector descriptors. The coordinator
// iterates it instead of branching on feature flags; adding a detector
// means registering a new descriptor.
type Registry struct {
	order     []string
	detectors map[string]Detector
}

func NewRegistry(detectors ...Detector) (*Registry, error) {
	r := &Registry{detectors: make(map[string]Detector)}
	for _, d := range detectors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(d Detector) error {
	if d.ID() == "" {
		return fmt.Errorf("detector id cannot be empty")
	}
	if _, exists := r.detectors[d.ID()]; exists {
		return fmt.Errorf("detector %q is already registered", d.ID())
	}
	r.detectors[d.ID()] = d
	r.order = append(r.order, d.ID())
	return nil
}

// IDs returns the registered detector ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Get(id string) (Detector, bool) {
	d, ok := r.detectors[id]
	return d, ok
}

// Enabled returns the detectors selected by the config, in registration
// order. An empty selection means all.
func (r *Registry) Enabled(ids []string) []Detector {
	if len(ids) == 0 {
		out := make([]Detector, 0, len(r.order))
		for _, id := range r.order {
			out = append(out, r.detectors[id])
		}
		return out
	}
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	out := make([]Detector, 0, len(ids))
	for _, id := range r.order {
		if selected[id] {
			out = append(out, r.detectors[id])
		}
	}
	return out
}

// DefaultRegistry returns the full rule-based detector set.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		&DuplicateFees{},
		&GhostFees{},
		&Overcharges{},
		&InterestAudit{},
		&ValueDates{},
		&Compliance{},
		&AML{},
		&CashFlow{},
		&Reconciliation{},
		&MultiBank{},
		&FeeCategories{},
	)
	if err != nil {
		// Registration of the built-in set only fails on a programming error.
		panic(err)
	}
	return r
}

func newAnomaly(t domain.AnomalyType, severity domain.Severity, amount float64) domain.Anomaly {
	return domain.Anomaly{
		ID:         uuid.NewString(),
		Type:       t,
		Severity:   severity,
		Amount:     amount,
		DetectedAt: time.Now().UTC(),
		Status:     domain.AnomalyPending,
	}
}
