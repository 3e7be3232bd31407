package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

const invocationDomain = "swiftremit/invocation/v1"

// ErrNotAuthorized is returned when an address did not sign the current
// invocation.
var ErrNotAuthorized = errors.New("crypto: address did not authorize invocation")

// Authorizer verifies that the current invocation was authorized by addr.
type Authorizer interface {
	RequireAuth(addr [20]byte) error
}

// InvocationDigest binds a signature to one operation, its nonce and its
// encoded arguments.
func InvocationDigest(op string, nonce uint64, payload []byte) [32]byte {
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], nonce)
	var out [32]byte
	copy(out[:], crypto.Keccak256([]byte(invocationDomain), []byte(op), nonceBuf[:], payload))
	return out
}

// Sign produces a 65-byte recoverable secp256k1 signature over digest.
func (k *PrivateKey) Sign(digest [32]byte) ([]byte, error) {
	if k == nil || k.PrivateKey == nil {
		return nil, fmt.Errorf("crypto: private key required")
	}
	return crypto.Sign(digest[:], k.PrivateKey)
}

// RecoverAddress returns the signer of digest.
func RecoverAddress(digest [32]byte, sig []byte) ([20]byte, error) {
	if len(sig) != crypto.SignatureLength {
		return [20]byte{}, fmt.Errorf("crypto: signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return [20]byte{}, fmt.Errorf("crypto: recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignerSet is the set of addresses verified for one invocation.
type SignerSet struct {
	signers map[[20]byte]struct{}
}

// Authorize builds a signer set from identities the caller has already
// verified out of band.
func Authorize(addrs ...[20]byte) *SignerSet {
	set := &SignerSet{signers: make(map[[20]byte]struct{}, len(addrs))}
	for _, addr := range addrs {
		set.signers[addr] = struct{}{}
	}
	return set
}

// VerifySignatures recovers every signer of digest. A single malformed
// signature rejects the whole set.
func VerifySignatures(digest [32]byte, sigs ...[]byte) (*SignerSet, error) {
	set := Authorize()
	for i, sig := range sigs {
		addr, err := RecoverAddress(digest, sig)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		set.signers[addr] = struct{}{}
	}
	return set, nil
}

// RequireAuth implements Authorizer.
func (s *SignerSet) RequireAuth(addr [20]byte) error {
	if s == nil {
		return ErrNotAuthorized
	}
	if _, ok := s.signers[addr]; !ok {
		return ErrNotAuthorized
	}
	return nil
}

// Len reports the number of verified signers.
func (s *SignerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.signers)
}
