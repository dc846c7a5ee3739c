package ssi

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/findy-network/findy-exchange/core"
	tinksig "github.com/google/tink/go/signature/subtle"
	"github.com/hyperledger/aries-framework-go/pkg/vdr/fingerprint"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

const didKeyPrefix = "did:key:"

type keyPair struct {
	did  core.DID
	seed []byte
	priv ed25519.PrivateKey
}

// newKeyPair builds the DID and its Ed25519 key pair from the seed. A nil
// seed means a random one.
func newKeyPair(method core.Method, seed []byte) (kp *keyPair, err error) {
	defer err2.Handle(&err, "new %s key", method)

	if seed == nil {
		seed = make([]byte, ed25519.SeedSize)
		try.To1(rand.Read(seed))
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed length %d, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	d := core.DID{Method: method, Verkey: base58.Encode(pub)}
	switch method {
	case core.MethodKey:
		didKey, _ := fingerprint.CreateDIDKey(pub)
		d.ID = strings.TrimPrefix(didKey, didKeyPrefix)
	case core.MethodSov:
		d.ID = base58.Encode(pub[:16])
	default:
		return nil, fmt.Errorf("unsupported DID method: %s", method)
	}
	return &keyPair{did: d, seed: seed, priv: priv}, nil
}

func (kp *keyPair) sign(data []byte) (sig []byte, err error) {
	defer err2.Handle(&err, "sign")

	signer := try.To1(tinksig.NewED25519SignerFromPrivateKey(&kp.priv))
	return signer.Sign(data)
}

// Verify verifies the Ed25519 signature of the data against the base58
// encoded verification key.
func Verify(verkey string, sig, data []byte) (err error) {
	defer err2.Handle(&err, "verify")

	pub := try.To1(base58.Decode(verkey))
	verifier := try.To1(tinksig.NewED25519Verifier(pub))
	return verifier.Verify(sig, data)
}

// KeyDID returns the did:key DID of the Ed25519 verification key.
func KeyDID(verkey string) (d core.DID, err error) {
	defer err2.Handle(&err, "did:key of %s", verkey)

	pub := try.To1(base58.Decode(verkey))
	if len(pub) != ed25519.PublicKeySize {
		return d, fmt.Errorf("key length %d", len(pub))
	}
	didKey, _ := fingerprint.CreateDIDKey(pub)
	return core.DID{
		Method: core.MethodKey,
		ID:     strings.TrimPrefix(didKey, didKeyPrefix),
		Verkey: verkey,
	}, nil
}

// ParseKeyDID returns the DID of the fully qualified did:key string.
func ParseKeyDID(didKey string) (d core.DID, err error) {
	defer err2.Handle(&err, "parse %s", didKey)

	pub := try.To1(fingerprint.PubKeyFromDIDKey(didKey))
	return core.DID{
		Method: core.MethodKey,
		ID:     strings.TrimPrefix(didKey, didKeyPrefix),
		Verkey: base58.Encode(pub),
	}, nil
}
