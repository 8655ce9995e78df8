package chameleon

import (
	"errors"
	"fmt"
	"math/big"
)

// KeyPair is a chameleon-hash trapdoor key pair for a single Group.
type KeyPair struct {
	Group *Group
	SK    *big.Int
	PK    *big.Int
}

// NewKeyPair generates a fresh trapdoor key pair within grp.
func NewKeyPair(grp *Group) (*KeyPair, error) {
	sk, pk, err := grp.KeyGen()
	if err != nil {
		return nil, err
	}
	return &KeyPair{Group: grp, SK: sk, PK: pk}, nil
}

// Hash computes the chameleon hash CH(PK, m, r) = g^m * PK^r mod p, where m
// is a digest already reduced into the exponent field (see Group.DigestToInt).
func Hash(grp *Group, pk, m, r *big.Int) *big.Int {
	gm := new(big.Int).Exp(grp.G, m, grp.P)
	pkr := new(big.Int).Exp(pk, r, grp.P)
	return gm.Mul(gm, pkr).Mod(gm, grp.P)
}

// HashHex reduces digestHex into the exponent field and computes Hash,
// returning the result as a hex string suitable for storing as a block ID.
func HashHex(grp *Group, pk *big.Int, digestHex string, r *big.Int) (string, error) {
	m, err := grp.DigestToInt(digestHex)
	if err != nil {
		return "", err
	}
	return Hash(grp, pk, m, r).Text(16), nil
}

// Forge computes r2 such that Hash(grp, pk, m2, r2) == Hash(grp, pk, m1, r1),
// given the trapdoor sk = log_g(pk). It solves
//
//	r2 = r1 + (m1 - m2) * sk^-1  (mod q)
//
// which follows directly from g^m1 * pk^r1 = g^m2 * pk^r2 with pk = g^sk.
func Forge(grp *Group, sk, m1, r1, m2 *big.Int) (*big.Int, error) {
	skInv := new(big.Int).ModInverse(sk, grp.Q)
	if skInv == nil {
		return nil, errors.New("chameleon: secret key has no inverse mod q")
	}
	diff := new(big.Int).Sub(m1, m2)
	diff.Mul(diff, skInv)
	r2 := new(big.Int).Add(r1, diff)
	r2.Mod(r2, grp.Q)
	if r2.Sign() == 0 {
		r2.Add(r2, grp.Q) // keep r2 in [1, q], never 0
	}
	return r2, nil
}

// ForgeHex is the hex-digest convenience wrapper around Forge, used by the
// redaction engine when it only has SHA-256 hex digests of the old and new
// canonical transaction lists on hand.
func ForgeHex(grp *Group, sk *big.Int, digest1Hex string, r1 *big.Int, digest2Hex string) (*big.Int, error) {
	m1, err := grp.DigestToInt(digest1Hex)
	if err != nil {
		return nil, fmt.Errorf("chameleon: digest1: %w", err)
	}
	m2, err := grp.DigestToInt(digest2Hex)
	if err != nil {
		return nil, fmt.Errorf("chameleon: digest2: %w", err)
	}
	return Forge(grp, sk, m1, r1, m2)
}
