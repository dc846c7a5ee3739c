package packager

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/core"
	tinkaead "github.com/google/tink/go/aead/subtle"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/util/cryptoutil"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/nacl/box"
)

const (
	encXChaCha = "xchacha20poly1305_ietf"
	typJWM     = "JWM/1.0"
	algAuth    = "Authcrypt"
	algAnon    = "Anoncrypt"

	cekSize   = 32
	nonceSize = 24
	tagSize   = 16
)

type recipientHeader struct {
	KID    string `json:"kid"`
	Sender string `json:"sender,omitempty"`
	IV     string `json:"iv,omitempty"`
}

type recipient struct {
	EncryptedKey string          `json:"encrypted_key"`
	Header       recipientHeader `json:"header"`
}

type protectedHeader struct {
	Enc        string      `json:"enc"`
	Typ        string      `json:"typ"`
	Alg        string      `json:"alg"`
	Recipients []recipient `json:"recipients"`
}

type envelope struct {
	Protected  string `json:"protected"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

// PackEncrypted encrypts the message to the recipient's verkey. With a
// sender the envelope is authcrypt, without anoncrypt.
func (p *Packager) PackEncrypted(msg []byte, recipientVerkey string, sender *core.DID) (b []byte, err error) {
	defer err2.Handle(&err, "pack encrypted")

	recPub := try.To1(curvePublic(recipientVerkey))
	cek := make([]byte, cekSize)
	try.To1(rand.Read(cek))

	rcpt := recipient{Header: recipientHeader{KID: recipientVerkey}}
	alg := algAnon
	if sender != nil && sender.Verkey != "" {
		alg = algAuth
		senderPriv := try.To1(p.curvePrivate(sender.Verkey))

		var nonce [nonceSize]byte
		try.To1(rand.Read(nonce[:]))
		encKey := box.Seal(nil, cek, &nonce, recPub, senderPriv)
		sealedSender := try.To1(box.SealAnonymous(nil, []byte(sender.Verkey), recPub, rand.Reader))

		rcpt.EncryptedKey = utils.EncodeB64(encKey)
		rcpt.Header.Sender = utils.EncodeB64(sealedSender)
		rcpt.Header.IV = utils.EncodeB64(nonce[:])
	} else {
		encKey := try.To1(box.SealAnonymous(nil, cek, recPub, rand.Reader))
		rcpt.EncryptedKey = utils.EncodeB64(encKey)
	}

	protected := utils.EncodeB64(try.To1(json.Marshal(protectedHeader{
		Enc:        encXChaCha,
		Typ:        typJWM,
		Alg:        alg,
		Recipients: []recipient{rcpt},
	})))

	cipher := try.To1(tinkaead.NewXChaCha20Poly1305(cek))
	sealed := try.To1(cipher.Encrypt(msg, []byte(protected)))
	ctEnd := len(sealed) - tagSize

	return json.Marshal(envelope{
		Protected:  protected,
		IV:         utils.EncodeB64(sealed[:nonceSize]),
		Ciphertext: utils.EncodeB64(sealed[nonceSize:ctEnd]),
		Tag:        utils.EncodeB64(sealed[ctEnd:]),
	})
}

func (p *Packager) unpackEncrypted(data []byte) (msg []byte, md Metadata, err error) {
	defer err2.Handle(&err, "encrypted")

	var env envelope
	try.To(json.Unmarshal(data, &env))
	var hdr protectedHeader
	try.To(json.Unmarshal(try.To1(utils.DecodeB64(env.Protected)), &hdr))
	if hdr.Enc != encXChaCha {
		return nil, md, verification("unsupported enc %s", hdr.Enc)
	}

	var rcpt *recipient
	for i := range hdr.Recipients {
		if p.keys.HasKey(hdr.Recipients[i].Header.KID) {
			rcpt = &hdr.Recipients[i]
			break
		}
	}
	if rcpt == nil {
		return nil, md, verification("no recipient key in wallet")
	}
	recPriv := try.To1(p.curvePrivate(rcpt.Header.KID))
	recPub := try.To1(curvePublic(rcpt.Header.KID))
	encKey := try.To1(utils.DecodeB64(rcpt.EncryptedKey))

	md = Metadata{Encrypted: true, RecipientKey: rcpt.Header.KID}
	var cek []byte
	switch hdr.Alg {
	case algAuth:
		sealedSender := try.To1(utils.DecodeB64(rcpt.Header.Sender))
		senderKey, ok := box.OpenAnonymous(nil, sealedSender, recPub, recPriv)
		if !ok {
			return nil, md, verification("cannot open sender")
		}
		senderPub := try.To1(curvePublic(string(senderKey)))
		var nonce [nonceSize]byte
		copy(nonce[:], try.To1(utils.DecodeB64(rcpt.Header.IV)))
		cek, ok = box.Open(nil, encKey, &nonce, senderPub, recPriv)
		if !ok {
			return nil, md, verification("cannot open key from %s", senderKey)
		}
		md.Protection = Authcrypt
		md.Authenticated = true
		md.SenderKey = string(senderKey)
	case algAnon:
		var ok bool
		cek, ok = box.OpenAnonymous(nil, encKey, recPub, recPriv)
		if !ok {
			return nil, md, verification("cannot open key")
		}
		md.Protection = Anoncrypt
		md.AnonymousSender = true
	default:
		return nil, md, verification("unsupported alg %s", hdr.Alg)
	}

	sealed := try.To1(utils.DecodeB64(env.IV))
	sealed = append(sealed, try.To1(utils.DecodeB64(env.Ciphertext))...)
	sealed = append(sealed, try.To1(utils.DecodeB64(env.Tag))...)
	cipher := try.To1(tinkaead.NewXChaCha20Poly1305(cek))
	msg, err = cipher.Decrypt(sealed, []byte(env.Protected))
	if err != nil {
		return nil, md, verification("payload: %v", err)
	}
	return msg, md, nil
}

func curvePublic(verkey string) (k *[32]byte, err error) {
	defer err2.Handle(&err, "X25519 key of %s", verkey)

	pub := try.To1(base58.Decode(verkey))
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("key length %d", len(pub))
	}
	k = new([32]byte)
	copy(k[:], try.To1(cryptoutil.PublicEd25519toCurve25519(pub)))
	return k, nil
}

func (p *Packager) curvePrivate(verkey string) (k *[32]byte, err error) {
	defer err2.Handle(&err, "X25519 private key of %s", verkey)

	priv := try.To1(p.keys.PrivateKey(verkey))
	k = new([32]byte)
	copy(k[:], try.To1(cryptoutil.SecretEd25519toCurve25519(priv)))
	return k, nil
}
