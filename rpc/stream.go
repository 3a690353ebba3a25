package rpc

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 65536,
	// the stream is read-only teaching data; any origin may watch
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler returns an http handler that upgrades to a websocket and
// pushes one snapshot every interval until the peer goes away. This is the
// feed a rendering client animates from.
func StreamHandler(interval time.Duration, logger log.Logger) http.HandlerFunc {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		logger.Debug("snapshot stream opened", "remote", conn.RemoteAddr())
		if err := streamSnapshots(conn, interval); err != nil {
			logger.Debug("snapshot stream closed", "remote", conn.RemoteAddr(), "reason", err)
		}
	}
}

func streamSnapshots(conn *websocket.Conn, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// drain control frames so pings and the close handshake are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for range ticker.C {
		snap := env.Runner.Snapshot()
		raw, err := json.Marshal(snap)
		if err != nil {
			return errors.Wrap(err, "marshaling snapshot")
		}
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return errors.Wrap(err, "writing snapshot")
		}
	}
	return nil
}
