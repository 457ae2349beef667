// Package anchor defines the boundary with the optional external
// anchoring collaborator (a blockchain or other ledger). The vault only
// hands over a content digest and stores whatever reference comes back;
// an unavailable anchorer never fails an upload.
package anchor

import "context"

// Anchorer submits a content digest for anchoring and returns an opaque
// reference to the anchoring transaction or entry.
type Anchorer interface {
	Anchor(ctx context.Context, digest string) (string, error)
}

// Noop is used when anchoring is disabled; records keep an empty
// anchor reference.
type Noop struct{}

func (Noop) Anchor(ctx context.Context, digest string) (string, error) {
	return "", nil
}

// Func adapts a plain function to the Anchorer interface.
type Func func(ctx context.Context, digest string) (string, error)

func (f Func) Anchor(ctx context.Context, digest string) (string, error) {
	return f(ctx, digest)
}
