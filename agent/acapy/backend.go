/*
Package acapy is the agent backend of a wallet which is served by an external
ACA-Py agent. The backend talks to the agent's admin API.
*/
package acapy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/core"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// errorMessageMaxLength is the maximum length of the response body we will
// include into the generated error message
const errorMessageMaxLength = 80

const headerAPIKey = "X-API-Key"

// Backend is the ACA-Py agent. AdminURL is the base URL of its admin API
// and Endpoint its DIDComm endpoint.
type Backend struct {
	AdminURL string
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func (b *Backend) Type() core.AgentType {
	return core.AgentAcaPy
}

func (b *Backend) EndpointURL() string {
	return b.Endpoint
}

type pingRequest struct {
	Comment string `json:"comment,omitempty"`
}

type pingResult struct {
	ThreadID string `json:"thread_id"`
}

// SendPing asks the agent to send the trust ping over the connection.
func (b *Backend) SendPing(ctx context.Context, connID, comment string) (threadID string, err error) {
	defer err2.Handle(&err, "ACA-Py send ping")

	var res pingResult
	try.To(b.post(ctx, "/connections/"+url.PathEscape(connID)+"/send-ping",
		pingRequest{Comment: comment}, &res))
	if res.ThreadID == "" {
		return "", fmt.Errorf("no thread_id in ping result")
	}
	glog.V(1).Infof("ACA-Py pinged %s, thread %s", connID, res.ThreadID)
	return res.ThreadID, nil
}

// Status returns the agent's status document.
func (b *Backend) Status(ctx context.Context) (status map[string]any, err error) {
	defer err2.Handle(&err, "ACA-Py status")

	try.To(b.call(ctx, http.MethodGet, "/status", nil, &status))
	return status, nil
}

func (b *Backend) post(ctx context.Context, path string, in, out any) (err error) {
	defer err2.Handle(&err)

	data := try.To1(json.Marshal(in))
	return b.call(ctx, http.MethodPost, path, bytes.NewReader(data), out)
}

func (b *Backend) call(ctx context.Context, method, path string, body io.Reader, out any) (err error) {
	defer err2.Handle(&err, "%s %s", method, path)

	ctx, cancel := context.WithTimeout(ctx, utils.Settings.Timeout())
	defer cancel()

	u := strings.TrimSuffix(b.AdminURL, "/") + path
	request := try.To1(http.NewRequestWithContext(ctx, method, u, body))
	request.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		request.Header.Set(headerAPIKey, b.APIKey)
	}

	response := try.To1(b.client().Do(request))
	defer func() {
		closeErr := response.Body.Close()
		if closeErr != nil {
			glog.Warningln("body.Close: ", closeErr)
		}
	}()

	data := try.To1(io.ReadAll(response.Body))
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", response.Status,
			data[:min(errorMessageMaxLength, len(data))])
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (b *Backend) client() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return http.DefaultClient
}
