package chameleon

import "math/big"

// Share is one party's piece of a split secret key. Only Index and Value are
// meaningful in this stub; a real (t, n)-Shamir implementation would also
// need the polynomial's commitments for verifiable reconstruction.
type Share struct {
	Index int
	Value *big.Int
}

// SecretSharing models the threshold key-splitting step multi-trapdoor
// redaction performs before forging: in the source system this call exists
// for its side effect only (simulating the latency of distributing key
// shares among miners) and the forge still proceeds with the full SK held
// by the engine — see DESIGN.md's "Open Question: threshold forgery"
// decision. A real implementation can satisfy this interface with genuine
// Shamir sharing without changing any caller's observable behavior.
type SecretSharing interface {
	// Share splits sk into n shares, any t of which reconstruct it.
	Share(sk *big.Int, q *big.Int, t, n int) ([]Share, error)
}

// StubSharing is the default SecretSharing: it produces placeholder shares
// (no real polynomial evaluation) and exists purely so callers can model the
// latency and message shape of threshold key distribution.
type StubSharing struct{}

// Share returns n placeholder shares. Index i holds a copy of sk itself,
// which is cryptographically meaningless but preserves the call's shape
// (n shares returned, t recorded) for callers that only care about the
// latency and fan-out of the sharing step, not reconstruction.
func (StubSharing) Share(sk *big.Int, q *big.Int, t, n int) ([]Share, error) {
	shares := make([]Share, n)
	for i := 0; i < n; i++ {
		shares[i] = Share{Index: i, Value: new(big.Int).Set(sk)}
	}
	return shares, nil
}
