// Package chameleon implements a chameleon hash over a prime-order subgroup
// of Z_p*, suitable for simulating redactable blockchains. The group is
// deliberately small: this is not production-grade cryptography — it exists
// so a trapdoor holder can forge randomness that keeps a digest invariant
// under message changes.
package chameleon

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Group holds the public parameters of a prime-order subgroup G = <g> of
// order q inside Z_p*, built from a safe prime p = 2q+1.
type Group struct {
	P *big.Int // prime modulus
	Q *big.Int // prime order of the subgroup
	G *big.Int // generator of the subgroup
}

var (
	one  = big.NewInt(1)
	bigG = big.NewInt(4)
)

// GenerateGroup samples a safe prime p = 2q+1 of the requested bit length
// and returns the order-q subgroup generated by 4 (the square of 2, which
// always lands inside the order-q subgroup of Z_p* for a safe prime). bits
// is the bit length of p; 256 is plenty for a simulation-only group and
// keeps KeyGen/Hash/Forge fast across thousands of simulated nodes.
func GenerateGroup(bits int) (*Group, error) {
	if bits < 32 {
		return nil, fmt.Errorf("chameleon: group size %d too small", bits)
	}
	for {
		q, err := rand.Prime(rand.Reader, bits-1)
		if err != nil {
			return nil, fmt.Errorf("chameleon: generate q: %w", err)
		}
		p := new(big.Int).Lsh(q, 1)
		p.Add(p, one)
		if !p.ProbablyPrime(20) {
			continue
		}
		return &Group{P: p, Q: q, G: new(big.Int).Set(bigG)}, nil
	}
}

// KeyGen samples SK uniformly from [1, q-1] and returns PK = g^SK mod p.
func (grp *Group) KeyGen() (sk, pk *big.Int, err error) {
	qMinus1 := new(big.Int).Sub(grp.Q, one)
	r, err := rand.Int(rand.Reader, qMinus1)
	if err != nil {
		return nil, nil, fmt.Errorf("chameleon: keygen random: %w", err)
	}
	sk = r.Add(r, one) // shift into [1, q-1]
	pk = new(big.Int).Exp(grp.G, sk, grp.P)
	return sk, pk, nil
}

// RandomR draws a fresh chameleon randomness value in [1, q].
func (grp *Group) RandomR() (*big.Int, error) {
	r, err := rand.Int(rand.Reader, grp.Q)
	if err != nil {
		return nil, fmt.Errorf("chameleon: random r: %w", err)
	}
	return r.Add(r, one), nil
}

// DigestToInt reduces a SHA-256 hex digest into the group's exponent field
// by interpreting the hex string as an integer and reducing mod q.
func (grp *Group) DigestToInt(digestHex string) (*big.Int, error) {
	m, ok := new(big.Int).SetString(digestHex, 16)
	if !ok {
		return nil, fmt.Errorf("chameleon: invalid hex digest %q", digestHex)
	}
	return m.Mod(m, grp.Q), nil
}
