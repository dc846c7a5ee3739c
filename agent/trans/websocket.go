package trans

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"nhooyr.io/websocket"
)

// WS delivers the messages over a WebSocket connection. A connection is
// opened per message.
type WS struct{}

func (*WS) DispatchToEndpoint(ctx context.Context, endpoint string, epm *didcomm.EndpointMessage) (err error) {
	defer err2.Handle(&err, "ws dispatch %s", endpoint)

	c, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket client: %w", err)
	}
	defer func() {
		closeErr := c.Close(websocket.StatusNormalClosure, "")
		if closeErr != nil && websocket.CloseStatus(closeErr) != websocket.StatusNormalClosure {
			glog.V(3).Infoln("ws close:", closeErr)
		}
	}()

	if err := c.Write(ctx, websocket.MessageBinary, epm.Body()); err != nil {
		return fmt.Errorf("websocket write message: %w", err)
	}

	// the server acknowledges every message with a status text
	_, ack, err := c.Read(ctx)
	if err != nil {
		return fmt.Errorf("websocket read ack: %w", err)
	}
	if string(ack) != WSAck {
		return fmt.Errorf("websocket delivery failed: %s", ack)
	}
	return nil
}

// WSAck is the WebSocket server's reply to a processed message.
const WSAck = "OK"
