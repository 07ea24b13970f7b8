package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/infincia/netrng/internal/codec"
	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/pkg/log"
)

// handle runs one session until the client leaves, a timeout or malformed
// frame ends it, ctx is cancelled, or the device fails.
//
// There is no retry within a session; every exit path closes conn once.
func (s *Server) handle(ctx context.Context, conn net.Conn, onFatal func(error)) {
	start := time.Now()
	logger := s.logger.With(
		log.String("session", uuid.NewString()),
		log.String("remote", conn.RemoteAddr().String()),
	)

	var closeOnce sync.Once
	closeConn := func() {
		closeOnce.Do(func() { _ = conn.Close() })
	}
	stop := context.AfterFunc(ctx, closeConn)
	defer stop()
	defer closeConn()

	active := s.admit()
	defer s.release()
	logger.Info("session opened", log.Int64("active", active))

	reason := s.serveSession(ctx, conn, logger, onFatal)
	logger.Info("session closed",
		log.String("reason", reason),
		log.Duration("duration", time.Since(start)),
	)
}

// serveSession loops AwaitingRequest -> Dispatching and returns why it ended.
func (s *Server) serveSession(ctx context.Context, conn net.Conn, logger log.Logger, onFatal func(error)) string {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReceiveTimeout)); err != nil {
			return "deadline: " + err.Error()
		}
		req, err := codec.ReadRequest(conn)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrUnknownMessageKind):
				s.metrics.Request("unknown")
				logger.Debug("ignoring request of unknown kind", log.Err(err))
				continue
			case errors.Is(err, domain.ErrMalformedMessage):
				s.metrics.Request("malformed")
				logger.Warn("malformed request", log.Err(err))
				return "malformed request"
			case ctx.Err() != nil:
				return "shutdown"
			case isTimeout(err):
				return "receive timeout"
			case errors.Is(err, io.EOF):
				return "client disconnected"
			default:
				logger.Debug("read failed", log.Err(err))
				return "read error"
			}
		}

		var resp domain.Response
		switch req.Kind {
		case domain.RequestSample:
			s.metrics.Request(string(domain.RequestSample))
			sample, err := s.source.ReadSample(ctx, s.cfg.SampleSizeBytes)
			if err != nil {
				if errors.Is(err, domain.ErrDeviceFailure) {
					logger.Error("entropy device failure", log.Err(err))
					onFatal(err)
					return "device failure"
				}
				return "shutdown"
			}
			resp = domain.SampleResponse(sample)
		case domain.RequestHeartbeat:
			s.metrics.Request(string(domain.RequestHeartbeat))
			resp = domain.HeartbeatResponse()
		}

		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return "deadline: " + err.Error()
		}
		if err := codec.WriteResponse(conn, resp); err != nil {
			if ctx.Err() != nil {
				return "shutdown"
			}
			logger.Debug("write failed", log.Err(err))
			return "write error"
		}
		if resp.Kind == domain.ResponseSample {
			s.metrics.SampleSent(len(resp.Sample))
			logger.Debug("sample sent", log.Int("bytes", len(resp.Sample)))
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
