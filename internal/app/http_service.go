package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/candy-store/internal/logger"
)

// HTTPService 对外 API
type HTTPService struct {
	server *http.Server
}

func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	return &HTTPService{server: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}}
}

func (s *HTTPService) Name() string { return "http" }

// Start 阻塞至 Shutdown；端口占用等错误直接返回
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return err
	}
	logger.Infow("http_listening", "addr", ln.Addr().String())
	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 等待进行中的请求，超出 ctx 期限后强制关闭
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Join(err, s.server.Close())
	}
	return nil
}
