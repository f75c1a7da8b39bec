package supervisordaemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"

	"go.uber.org/zap"

	"github.com/rtsyn/rtsyn/internal/obs"
	"github.com/rtsyn/rtsyn/pkg/rtsynproto"
)

// newSocketListener binds the control-plane Unix domain socket, removing
// any stale socket file left behind by an unclean previous shutdown.
func newSocketListener(path string) (net.Listener, error) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	return net.Listen("unix", path)
}

type requestHandler func(rtsynproto.DaemonRequest) rtsynproto.DaemonResponse

// acceptLoop accepts connections until ctx is cancelled, handling each on
// its own goroutine. One connection may carry many request/response
// lines (§5 "Ordering": each connection answers its own requests in
// arrival order; connections do not serialize against each other).
func acceptLoop(ctx context.Context, listener net.Listener, log *zap.Logger, handle requestHandler) {
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("control-plane socket accept error", obs.Err(err))
			continue
		}
		go serveConn(conn, log, handle)
	}
}

func serveConn(conn net.Conn, log *zap.Logger, handle requestHandler) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var req rtsynproto.DaemonRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(rtsynproto.Errorf("malformed request: " + err.Error()))
			continue
		}
		resp := handle(req)
		if err := enc.Encode(resp); err != nil {
			log.Warn("control-plane socket write error", obs.Err(err))
			return
		}
	}
}
