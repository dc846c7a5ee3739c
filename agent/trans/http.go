package trans

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// errorMessageMaxLength is the maximum length of the response body we will
// include into the generated error message
const errorMessageMaxLength = 80

// ContentEncodingZstd is the Content-Encoding of the compressed bodies.
const ContentEncodingZstd = "zstd"

// HTTP posts the messages to the endpoints. Failed deliveries are retried
// with exponential backoff, client errors (4xx) are not.
type HTTP struct {
	Client   *http.Client
	Retries  uint64
	Compress bool
	Timeout  time.Duration
}

// NewHTTP returns the HTTP dispatcher configured from utils.Settings.
func NewHTTP() *HTTP {
	return &HTTP{
		Client:   &http.Client{},
		Retries:  utils.Settings.Retries(),
		Compress: utils.Settings.Compress(),
		Timeout:  utils.Settings.Timeout(),
	}
}

func (h *HTTP) DispatchToEndpoint(ctx context.Context, endpoint string, epm *didcomm.EndpointMessage) (err error) {
	defer err2.Handle(&err, "http dispatch %s", endpoint)

	body := epm.Body()
	encoding := ""
	if h.Compress {
		body = Compress(body)
		encoding = ContentEncodingZstd
	}
	contentType := epm.ContentType()
	if contentType == "" {
		contentType = pltype.MediaTypeEncrypted
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), h.Retries), ctx)
	return backoff.Retry(func() error {
		return h.post(ctx, endpoint, contentType, encoding, body)
	}, b)
}

func (h *HTTP) post(ctx context.Context, endpoint, contentType, encoding string, body []byte) (err error) {
	defer err2.Handle(&err, "call http")

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = utils.HTTPReqTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request := try.To1(http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body)))
	request.Close = true // deferred response.Body.Close isn't always enough
	request.Header.Set("Content-Type", contentType)
	if encoding != "" {
		request.Header.Set("Content-Encoding", encoding)
	}

	response, err := h.client().Do(request)
	if err != nil {
		glog.V(1).Infoln("http post:", err)
		return err
	}
	defer func() {
		closeErr := response.Body.Close()
		if closeErr != nil {
			glog.Warningln("body.Close: ", closeErr)
		}
	}()

	data := try.To1(io.ReadAll(response.Body))
	err = checkHTTPStatus(response, data)
	if err != nil && response.StatusCode < http.StatusInternalServerError {
		return backoff.Permanent(err)
	}
	return err
}

func (h *HTTP) client() *http.Client {
	if h.Client == nil {
		return http.DefaultClient
	}
	return h.Client
}

// checkHTTPStatus checks the status code and gets the server message
func checkHTTPStatus(response *http.Response, data []byte) error {
	if response.StatusCode == http.StatusOK ||
		response.StatusCode == http.StatusAccepted ||
		response.StatusCode == http.StatusNoContent {
		return nil
	}
	glog.Warning("http code:", response.Status)
	contentType := response.Header.Get("Content-type")
	// from our server: text/plain; charset=utf-8
	if strings.HasPrefix(contentType, "text/plain") {
		l := len(data)
		return fmt.Errorf("%s: %s",
			response.Status, data[0:min(errorMessageMaxLength, l)])
	}
	return fmt.Errorf("%v", response.Status)
}
