package topology

import (
	"errors"
	"slices"

	"github.com/skylab-sim/skymesh/sim"
)

// DefaultMinRouters is the smallest router population accepted unless a
// different threshold is configured.
const DefaultMinRouters = 10

// ModelBuilder accumulates records and freezes them into a Model after a
// single validation pass. A partially-built model is never observable:
// Build either returns a consistent Model or an error listing every
// defect found.
type ModelBuilder struct {
	records         []Record
	minRouters      int
	allowAsymmetric bool
}

// MakeModelBuilder creates a builder with default validation thresholds.
func MakeModelBuilder() ModelBuilder {
	return ModelBuilder{
		minRouters: DefaultMinRouters,
	}
}

// WithMinRouters sets the smallest accepted router population.
func (b ModelBuilder) WithMinRouters(n int) ModelBuilder {
	b.minRouters = n
	return b
}

// WithAsymmetricLinks permits a node to list a neighbor that does not
// list it back, yielding a one-way edge. The default is to reject such
// topologies.
func (b ModelBuilder) WithAsymmetricLinks() ModelBuilder {
	b.allowAsymmetric = true
	return b
}

// Add appends a record. Validation is deferred to Build.
func (b ModelBuilder) Add(r Record) ModelBuilder {
	r.Neighbors = slices.Clone(r.Neighbors)
	b.records = append(slices.Clip(b.records), r)
	return b
}

// Build validates the accumulated records and freezes them into a Model.
// All defects are collected and returned joined, so a bad topology is
// diagnosed in one pass.
func (b ModelBuilder) Build() (*Model, error) {
	var errs []error

	index := make(map[sim.NodeID]int, len(b.records))
	for i, r := range b.records {
		if prev, dup := index[r.ID]; dup {
			errs = append(errs, errf(r.ID, "id",
				"declared twice (entries %d and %d)", prev, i))
			continue
		}
		index[r.ID] = i
	}

	for _, r := range b.records {
		errs = append(errs, b.validateRecord(r, index)...)
	}

	if n := b.countRouters(); n < b.minRouters {
		errs = append(errs, errf(0, "network",
			"%d routers declared, at least %d required", n, b.minRouters))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Model{
		records: slices.Clone(b.records),
		index:   index,
	}, nil
}

func (b ModelBuilder) validateRecord(
	r Record,
	index map[sim.NodeID]int,
) []error {
	var errs []error

	seen := make(map[sim.NodeID]bool, len(r.Neighbors))
	for _, nb := range r.Neighbors {
		if nb == r.ID {
			errs = append(errs, errf(r.ID, "neighbors",
				"node lists itself as a neighbor"))
			continue
		}

		if seen[nb] {
			errs = append(errs, errf(r.ID, "neighbors",
				"neighbor %s listed twice", nb))
			continue
		}
		seen[nb] = true

		j, ok := index[nb]
		if !ok {
			errs = append(errs, errf(r.ID, "neighbors",
				"neighbor %s is not declared anywhere", nb))
			continue
		}

		if !b.allowAsymmetric &&
			!slices.Contains(b.records[j].Neighbors, r.ID) {
			errs = append(errs, errf(r.ID, "neighbors",
				"neighbor %s does not list %s back", nb, r.ID))
		}
	}

	if r.Role == sim.RoleRouter &&
		(r.DropRate < 0 || r.DropRate > 1) {
		errs = append(errs, errf(r.ID, "drop_rate",
			"%v is outside [0, 1]", r.DropRate))
	}

	return errs
}

func (b ModelBuilder) countRouters() int {
	n := 0
	for _, r := range b.records {
		if r.Role == sim.RoleRouter {
			n++
		}
	}
	return n
}
