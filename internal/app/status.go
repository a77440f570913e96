package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"github.com/rl1809/order-console/internal/adapter/handler"
)

const (
	healthUpdateInterval = 2 * time.Second
	shutdownTimeout      = 5 * time.Second
)

// StatusServer exposes the synchronizer's state over HTTP (gin) and the gRPC
// health protocol. Either side is skipped when its address is empty.
type StatusServer struct {
	app *App

	httpServer *http.Server
	httpLis    net.Listener
	grpcServer *grpc.Server
	grpcLis    net.Listener
	health     *handler.GRPCHandler
}

// NewStatusServer binds the configured addresses. It returns nil, nil when
// neither address is set.
func (a *App) NewStatusServer(source handler.StatusSource) (*StatusServer, error) {
	if a.Config.StatusHTTPAddr == "" && a.Config.StatusGRPCAddr == "" {
		return nil, nil
	}
	s := &StatusServer{app: a}

	if addr := a.Config.StatusHTTPAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		gin.SetMode(gin.ReleaseMode)
		router := handler.NewRouter(handler.NewHTTPHandler(source, a.Metrics.Handler()))
		s.httpLis = lis
		s.httpServer = &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	}

	if addr := a.Config.StatusGRPCAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			if s.httpLis != nil {
				s.httpLis.Close()
			}
			return nil, err
		}
		s.grpcLis = lis
		s.grpcServer = grpc.NewServer()
		s.health = handler.NewGRPCHandler(source)
		s.health.Register(s.grpcServer)
	}
	return s, nil
}

func (s *StatusServer) HTTPAddr() string { return addrOf(s.httpLis) }
func (s *StatusServer) GRPCAddr() string { return addrOf(s.grpcLis) }

func addrOf(lis net.Listener) string {
	if lis == nil {
		return ""
	}
	return lis.Addr().String()
}

// Serve runs both servers until ctx is done, then shuts them down.
func (s *StatusServer) Serve(ctx context.Context) {
	log := s.app.Logger.WithField("component", "status")
	var wg sync.WaitGroup

	if s.httpServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Infof("HTTP status server listening on %s", s.HTTPAddr())
			if err := s.httpServer.Serve(s.httpLis); !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("HTTP status server error")
			}
		}()
	}

	if s.grpcServer != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			log.Infof("gRPC health server listening on %s", s.GRPCAddr())
			if err := s.grpcServer.Serve(s.grpcLis); err != nil {
				log.WithError(err).Error("gRPC health server error")
			}
		}()
		go func() {
			defer wg.Done()
			s.health.Run(ctx, healthUpdateInterval)
		}()
	}

	<-ctx.Done()

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		s.httpServer.Shutdown(shutdownCtx)
		cancel()
		log.Info("HTTP status server stopped")
	}
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
		log.Info("gRPC health server stopped")
	}
	wg.Wait()
}
