package did

import (
	"errors"
	"fmt"
	"time"

	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/core"
)

const (
	KeyTypeEd25519    = "Ed25519VerificationKey2018"
	AuthTypeEd25519   = "Ed25519SignatureAuthentication2018"
	ServiceTypeAgent  = "did-communication"
	keyFragment       = "#1"
	serviceIDFragment = "#didcomm"
)

// Doc DID Document definition
type Doc struct {
	Context        string               `json:"@context,omitempty"`
	ID             string               `json:"id,omitempty"`
	PublicKey      []PublicKey          `json:"publicKey,omitempty"`
	Service        []Service            `json:"service,omitempty"`
	Authentication []VerificationMethod `json:"authentication,omitempty"`
	Created        *time.Time           `json:"created,omitempty"`
	Updated        *time.Time           `json:"updated,omitempty"`
}

// PublicKey DID doc public key
type PublicKey struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type,omitempty"`
	Controller      string `json:"controller,omitempty"`
	PublicKeyBase58 string `json:"publicKeyBase58,omitempty"`
}

// Service DID doc service
type Service struct {
	ID              string   `json:"id,omitempty"`
	Type            string   `json:"type,omitempty"`
	Priority        uint     `json:"priority,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// VerificationMethod authentication verification method
type VerificationMethod struct {
	Type      string `json:"type,omitempty"`
	PublicKey string `json:"publicKey,omitempty"`
}

// NewDoc builds the DID document we give to the other end in DID exchange.
func NewDoc(did core.DID, endpoint string) *Doc {
	didURI := did.Qualified()
	didURIRef := didURI + keyFragment
	pubK := PublicKey{
		ID:              didURIRef,
		Type:            KeyTypeEd25519,
		Controller:      didURI,
		PublicKeyBase58: did.Verkey,
	}
	service := Service{
		ID:              didURI + serviceIDFragment,
		Type:            ServiceTypeAgent,
		Priority:        0,
		RecipientKeys:   []string{did.Verkey},
		ServiceEndpoint: endpoint,
	}
	return &Doc{
		Context:   pltype.DIDDocContext,
		ID:        didURI,
		PublicKey: []PublicKey{pubK},
		Service:   []Service{service},
		Authentication: []VerificationMethod{{
			Type:      AuthTypeEd25519,
			PublicKey: didURIRef,
		}},
	}
}

// Validate checks the parts of the document that DID exchange relies on.
func (d *Doc) Validate() error {
	if d.Context != pltype.DIDDocContext {
		return fmt.Errorf("unexpected @context: %s", d.Context)
	}
	if d.ID == "" {
		return errors.New("DID doc id is empty")
	}
	if d.VerKey() == "" {
		return errors.New("DID doc has no Ed25519 public key")
	}
	return nil
}

// VerKey returns the base58 encoded verification key of the document or
// empty string.
func (d *Doc) VerKey() string {
	for _, pk := range d.PublicKey {
		if pk.Type == KeyTypeEd25519 && pk.PublicKeyBase58 != "" {
			return pk.PublicKeyBase58
		}
	}
	return ""
}

// Endpoint returns the first DIDComm service endpoint of the document.
func (d *Doc) Endpoint() string {
	if len(d.Service) == 0 {
		return ""
	}
	return d.Service[0].ServiceEndpoint
}

// DID returns the document's DID with the key.
func (d *Doc) DID() (did core.DID, err error) {
	m, id, err := core.SplitDID(d.ID)
	if err != nil {
		return did, err
	}
	return core.DID{Method: m, ID: id, Verkey: d.VerKey()}, nil
}
