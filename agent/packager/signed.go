package packager

import (
	"encoding/json"

	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const algEdDSA = "EdDSA"

type jwsHeader struct {
	Alg string `json:"alg"`
	KID string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

type jwsSignature struct {
	Protected string `json:"protected"`
	Signature string `json:"signature"`
}

type jwsGeneral struct {
	Payload    string         `json:"payload"`
	Signatures []jwsSignature `json:"signatures"`
}

// PackSigned signs the message with the key of the signer's verkey.
func (p *Packager) PackSigned(msg []byte, signerVerkey string) (b []byte, err error) {
	defer err2.Handle(&err, "pack signed")

	_ = try.To1(p.PackPlaintext(msg))

	protected := utils.EncodeB64(try.To1(json.Marshal(jwsHeader{
		Alg: algEdDSA,
		KID: signerVerkey,
		Typ: pltype.MediaTypeSigned,
	})))
	payload := utils.EncodeB64(msg)
	sig := try.To1(p.keys.Sign(signerVerkey, []byte(protected+"."+payload)))

	return json.Marshal(jwsGeneral{
		Payload: payload,
		Signatures: []jwsSignature{{
			Protected: protected,
			Signature: utils.EncodeB64(sig),
		}},
	})
}

func (p *Packager) unpackSigned(data []byte) (msg []byte, md Metadata, err error) {
	defer err2.Handle(&err, "signed")

	var jws jwsGeneral
	try.To(json.Unmarshal(data, &jws))
	if len(jws.Signatures) != 1 {
		return nil, md, verification("want one signature, got %d", len(jws.Signatures))
	}
	s := jws.Signatures[0]

	var hdr jwsHeader
	try.To(json.Unmarshal(try.To1(utils.DecodeB64(s.Protected)), &hdr))
	if hdr.Alg != algEdDSA {
		return nil, md, verification("unsupported alg %s", hdr.Alg)
	}
	sig := try.To1(utils.DecodeB64(s.Signature))
	if err := ssi.Verify(hdr.KID, sig, []byte(s.Protected+"."+jws.Payload)); err != nil {
		return nil, md, verification("signature of %s: %v", hdr.KID, err)
	}

	msg = try.To1(utils.DecodeB64(jws.Payload))
	return msg, Metadata{
		Protection:    Signed,
		Authenticated: true,
		SenderKey:     hdr.KID,
	}, nil
}
