package outofband

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// QueryParam is the URL query parameter of the invitation.
const QueryParam = "oob"

// URL returns the invitation in URL form where the JSON is base64url encoded
// in the oob query parameter of the base URL.
func (inv *Invitation) URL(base string) (s string, err error) {
	defer err2.Handle(&err, "invitation URL")

	u := try.To1(url.Parse(base))
	data := try.To1(json.Marshal(inv))
	q := u.Query()
	q.Set(QueryParam, utils.EncodeB64(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Decode returns the invitation from JSON or from the URL form.
func Decode(s string) (inv *Invitation, err error) {
	defer err2.Handle(&err, "decode invitation")

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty invitation")
	}
	var data []byte
	if strings.HasPrefix(s, "{") {
		data = []byte(s)
	} else {
		u := try.To1(url.Parse(s))
		enc := u.Query().Get(QueryParam)
		if enc == "" {
			return nil, errors.New("no " + QueryParam + " parameter in URL")
		}
		data = try.To1(utils.DecodeB64(enc))
	}
	inv = new(Invitation)
	try.To(json.Unmarshal(data, inv))
	return inv, nil
}
