// Package identity defines the boundary with the external identity
// subsystem. The vault treats identities as opaque immutable references
// and performs no authentication itself.
package identity

import "context"

// Provider answers whether an identity reference is known. Injected into
// the lifecycle service so the identity model is never global state.
type Provider interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

// Directory is an in-process Provider backed by a fixed set of known
// identities. Suitable for tests and single-tenant deployments where the
// real identity subsystem lives elsewhere.
type Directory struct {
	known map[string]struct{}
}

func NewDirectory(refs ...string) *Directory {
	known := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		known[r] = struct{}{}
	}
	return &Directory{known: known}
}

func (d *Directory) Exists(ctx context.Context, ref string) (bool, error) {
	_, ok := d.known[ref]
	return ok, nil
}

// AllowAll accepts every non-empty identity reference. Useful when the
// surrounding application has already authenticated the caller.
type AllowAll struct{}

func (AllowAll) Exists(ctx context.Context, ref string) (bool, error) {
	return ref != "", nil
}
