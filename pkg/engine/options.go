package engine

import (
	"time"

	"github.com/campusops/sisync/pkg/entities"
	"github.com/campusops/sisync/pkg/extract"
)

// DeletePolicy controls what happens to remote-only records of one entity
// type.
type DeletePolicy string

// Recognized delete policies.
const (
	// PolicyDelete removes remote-only records.
	PolicyDelete DeletePolicy = "delete"
	// PolicyDeactivate keeps remote-only records but marks them inactive.
	PolicyDeactivate DeletePolicy = "deactivate"
	// PolicyRetain leaves remote-only records untouched.
	PolicyRetain DeletePolicy = "retain"
)

// ParseDeletePolicy validates a configured policy name.
func ParseDeletePolicy(s string) (DeletePolicy, bool) {
	switch DeletePolicy(s) {
	case PolicyDelete, PolicyDeactivate, PolicyRetain:
		return DeletePolicy(s), true
	}
	return "", false
}

// Options controls how the engine applies a pass's operations.
type Options struct {
	// Concurrency bounds in-flight remote operations within one pass.
	Concurrency int

	// MaxTries is the number of attempts per operation; only transient
	// failures are retried.
	MaxTries uint

	// RetryInterval is the initial backoff interval between attempts.
	RetryInterval time.Duration

	// DeletePolicies overrides the per-type delete policy. Types without
	// an override delete when their descriptor marks them deletable and
	// retain otherwise.
	DeletePolicies map[entities.Type]DeletePolicy

	// DeactivateField and DeactivateValue define the inactive marker
	// written by the deactivate policy.
	DeactivateField string
	DeactivateValue string
}

// Defaults returns the default engine options.
func Defaults() *Options {
	return &Options{
		Concurrency:     4,
		MaxTries:        3,
		RetryInterval:   250 * time.Millisecond,
		DeletePolicies:  make(map[entities.Type]DeletePolicy),
		DeactivateField: "active",
		DeactivateValue: "false",
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PolicyFor resolves the effective delete policy for an entity type.
func (o *Options) PolicyFor(desc *extract.Descriptor) DeletePolicy {
	if policy, ok := o.DeletePolicies[desc.Entity]; ok {
		return policy
	}
	if desc.Deletable {
		return PolicyDelete
	}
	return PolicyRetain
}

// Option configures engine Options.
type Option func(*Options)

// WithConcurrency bounds in-flight remote operations within one pass.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithMaxTries sets the number of attempts per remote operation.
func WithMaxTries(n uint) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxTries = n
		}
	}
}

// WithRetryInterval sets the initial backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.RetryInterval = d
		}
	}
}

// WithDeletePolicy overrides the delete policy for one entity type.
func WithDeletePolicy(t entities.Type, policy DeletePolicy) Option {
	return func(o *Options) {
		o.DeletePolicies[t] = policy
	}
}

// WithDeactivateMarker overrides the field and value written by the
// deactivate policy.
func WithDeactivateMarker(field, value string) Option {
	return func(o *Options) {
		o.DeactivateField = field
		o.DeactivateValue = value
	}
}
