package basicmessage

import (
	"errors"
	"strings"
	"time"

	"github.com/findy-network/findy-exchange/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// AriesTime is the sent_time of the message. ACA-Py uses its own ISO8601
// format which isn't RFC3339, and we accept both.
type AriesTime struct {
	time.Time
}

// use generate errors with ACAPy when sending basic messages
// const ISO8601 = "2006-01-02 15:04:05.999999999Z"
const ISO8601 = "2006-01-02 15:04:05.999999Z"

// Basicmessage is RFC0095 basic message.
type Basicmessage struct {
	Type     string            `json:"@type,omitempty"`
	ID       string            `json:"@id,omitempty"`
	Thread   *decorator.Thread `json:"~thread,omitempty"`
	Content  string            `json:"content"`
	SentTime AriesTime         `json:"sent_time"`
	Lang     string            `json:"~l10n,omitempty"`
}

// MessageV2 is the DIDComm V2 preview of the basic message. Header fields are
// on the top level and the content is in the body.
type MessageV2 struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Thid        string   `json:"thid,omitempty"`
	Pthid       string   `json:"pthid,omitempty"`
	From        string   `json:"from,omitempty"`
	To          []string `json:"to,omitempty"`
	CreatedTime int64    `json:"created_time,omitempty"`
	Body        BodyV2   `json:"body"`
}

type BodyV2 struct {
	Content string `json:"content"`
}

// NewAriesTime returns the time truncated to the precision of the wire
// format.
func NewAriesTime(t time.Time) AriesTime {
	return AriesTime{Time: t.UTC().Truncate(time.Microsecond)}
}

func validateTimestamp(timeStr string) (t time.Time, err error) {
	acceptedFormats := []string{ISO8601, time.RFC3339}
	for _, fmt := range acceptedFormats {
		if t, err = time.Parse(fmt, timeStr); err == nil {
			break
		}
	}
	return
}

func (at *AriesTime) UnmarshalJSON(b []byte) (err error) {
	defer err2.Handle(&err, "sent_time")

	t := try.To1(validateTimestamp(strings.Trim(string(b), "\"")))

	*at = AriesTime{Time: t}
	return
}

func (at AriesTime) MarshalJSON() ([]byte, error) {
	// below taken from Go standard lib
	t := at.Time
	if y := t.Year(); y < 0 || y >= 10000 {
		// RFC 3339 is clear that years are 4 digits exactly.
		// See golang.org/issue/4556#c15 for more discussion.
		return nil, errors.New("Time.MarshalJSON: year outside of range [0,9999]")
	}

	b := make([]byte, 0, len(ISO8601)+2)
	b = append(b, '"')
	b = t.AppendFormat(b, ISO8601)
	b = append(b, '"')
	return b, nil
}

func (at AriesTime) String() string {
	return at.Time.String()
}
