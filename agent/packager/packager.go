/*
Package packager packs DIDComm messages to their wire envelopes and unpacks
them. The supported protections are plaintext, signed (JWS general JSON
serialization, EdDSA) and encrypted. The encrypted envelope follows RFC0019:
the content encryption key is boxed for the recipient, with the sender's
verkey sealed in the recipient header (authcrypt) or without a sender
(anoncrypt), and the payload is encrypted with XChaCha20Poly1305 using the
protected header as associated data.
*/
package packager

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/core"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Protection is the packing mode of the message.
type Protection int

const (
	Plaintext Protection = iota
	Signed
	Authcrypt
	Anoncrypt
)

func (p Protection) String() string {
	switch p {
	case Plaintext:
		return "plaintext"
	case Signed:
		return "signed"
	case Authcrypt:
		return "authcrypt"
	case Anoncrypt:
		return "anoncrypt"
	}
	return fmt.Sprintf("Protection(%d)", int(p))
}

// MediaType returns the content type of the packed message.
func (p Protection) MediaType() string {
	switch p {
	case Signed:
		return pltype.MediaTypeSigned
	case Authcrypt, Anoncrypt:
		return pltype.MediaTypeEncrypted
	}
	return pltype.MediaTypePlain
}

// KeyStore gives the packager access to the wallet's keys.
type KeyStore interface {
	HasKey(verkey string) bool
	PrivateKey(verkey string) (ed25519.PrivateKey, error)
	Sign(verkey string, data []byte) ([]byte, error)
}

// Metadata tells how the unpacked message was protected.
type Metadata struct {
	Protection      Protection
	Encrypted       bool
	Authenticated   bool
	AnonymousSender bool
	SenderKey       string
	RecipientKey    string
}

type Packager struct {
	keys KeyStore
}

func New(keys KeyStore) *Packager {
	return &Packager{keys: keys}
}

// Pack packs the message with the protection. The from is the sender's
// verkey for Signed and Authcrypt, the to is the recipient's verkey for the
// encrypted modes.
func (p *Packager) Pack(msg []byte, prot Protection, from, to string) ([]byte, error) {
	switch prot {
	case Plaintext:
		return p.PackPlaintext(msg)
	case Signed:
		return p.PackSigned(msg, from)
	case Authcrypt:
		return p.PackEncrypted(msg, to, &core.DID{Verkey: from})
	case Anoncrypt:
		return p.PackEncrypted(msg, to, nil)
	}
	return nil, fmt.Errorf("unknown protection: %s", prot)
}

// PackPlaintext checks that the message is a JSON object and returns a copy
// of it.
func (p *Packager) PackPlaintext(msg []byte) (b []byte, err error) {
	defer err2.Handle(&err, "pack plaintext")

	var obj map[string]json.RawMessage
	try.To(json.Unmarshal(msg, &obj))
	return append(msg[:0:0], msg...), nil
}

// Unpack detects the envelope type and opens it.
func (p *Packager) Unpack(data []byte) (msg []byte, md Metadata, err error) {
	defer err2.Handle(&err, "unpack")

	var obj map[string]json.RawMessage
	try.To(json.Unmarshal(data, &obj))

	switch {
	case has(obj, "protected", "ciphertext"):
		msg, md = try.To2(p.unpackEncrypted(data))
	case has(obj, "payload", "signatures"):
		msg, md = try.To2(p.unpackSigned(data))
	default:
		msg = append(data[:0:0], data...)
		md = Metadata{Protection: Plaintext}
	}
	glog.V(5).Infof("unpacked %s (sender %s)", md.Protection, md.SenderKey)
	return msg, md, nil
}

func has(obj map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func verification(format string, a ...any) error {
	return didcomm.Verification(format, a...)
}
