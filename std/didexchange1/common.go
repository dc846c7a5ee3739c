package didexchange1

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/std/did"
	"github.com/golang/glog"
	aries "github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

const (
	mimeTypeJSON = "application/json"
	algEdDSA     = "EdDSA"
)

// SignFunc signs data with the private key of the verkey.
type SignFunc func(verkey string, data []byte) ([]byte, error)

// VerifyFunc verifies the signature with the verkey.
type VerifyFunc func(verkey string, sig, data []byte) error

// JWS is the detached JWS of the did_doc~attach. The payload is the
// attachment's base64 data.
type JWS struct {
	Header    JWSHeader `json:"header"`
	Protected string    `json:"protected"`
	Signature string    `json:"signature"`
}

type JWSHeader struct {
	KID string `json:"kid"`
}

type protectedHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	JWK JWK    `json:"jwk"`
}

// JWK is the OKP key of the signer.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Kid string `json:"kid,omitempty"`
}

// NewDIDDocAttach marshals the document to the base64 attachment and signs
// it with the verkey.
func NewDIDDocAttach(doc *did.Doc, verkey string, sign SignFunc) (a *aries.Attachment, err error) {
	defer err2.Handle(&err, "new DID doc attach")

	assert.NotNil(doc)
	didDoc := try.To1(json.Marshal(doc))
	pk := try.To1(base58.Decode(verkey))

	protected := try.To1(json.Marshal(protectedHeader{
		Alg: algEdDSA,
		Kid: verkey,
		JWK: JWK{Kty: "OKP", Crv: "Ed25519", X: utils.EncodeB64(pk), Kid: verkey},
	}))
	protected64 := utils.EncodeB64(protected)
	payload64 := utils.EncodeB64(didDoc)
	sig := try.To1(sign(verkey, []byte(protected64+"."+payload64)))

	jws := try.To1(json.Marshal(JWS{
		Header:    JWSHeader{KID: verkey},
		Protected: protected64,
		Signature: utils.EncodeB64(sig),
	}))
	return &aries.Attachment{
		ID:       utils.UUID(),
		MimeType: mimeTypeJSON,
		Data: aries.AttachmentData{
			Base64: base64.StdEncoding.EncodeToString(didDoc),
			JWS:    jws,
		},
	}, nil
}

// DIDDocument decodes the attached document and verifies that the JWS is made
// with the document's own key. It returns the document and the key that
// signed it.
func DIDDocument(a *aries.Attachment, verify VerifyFunc) (doc *did.Doc, signer string, err error) {
	defer err2.Handle(&err, "DID doc attach")

	if a == nil || a.Data.Base64 == "" {
		return nil, "", errors.New("no DID doc attachment")
	}
	didDoc := try.To1(utils.DecodeStdB64(a.Data.Base64))
	doc = new(did.Doc)
	try.To(json.Unmarshal(didDoc, doc))
	try.To(doc.Validate())

	if len(a.Data.JWS) == 0 {
		return nil, "", errors.New("DID doc attachment is not signed")
	}
	var jws JWS
	try.To(json.Unmarshal(a.Data.JWS, &jws))
	var ph protectedHeader
	try.To(json.Unmarshal(try.To1(utils.DecodeB64(jws.Protected)), &ph))
	if ph.Alg != algEdDSA {
		return nil, "", fmt.Errorf("unsupported JWS alg: %s", ph.Alg)
	}
	pk := try.To1(utils.DecodeB64(ph.JWK.X))
	signer = base58.Encode(pk)
	if signer != doc.VerKey() {
		return nil, "", fmt.Errorf("JWS key %s is not the key of %s", signer, doc.ID)
	}
	sig := try.To1(utils.DecodeB64(jws.Signature))
	signingInput := jws.Protected + "." + utils.EncodeB64(didDoc)
	try.To(verify(signer, sig, []byte(signingInput)))

	glog.V(3).Infoln("DID doc attach verified for:", doc.ID)
	return doc, signer, nil
}
