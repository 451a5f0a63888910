package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"luckee-incentive/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ProvideHTTPServer = fx.Module("http.server",
	fx.Provide(NewHttpServer),
	fx.Invoke(Run),
)

type Server struct {
	server *http.Server
}

type Params struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Handler   http.Handler
}

// NewHttpServer serves Handler on HTTP_SERVER.ADDR, over TLS when TLS.ENABLE is set.
func NewHttpServer(p Params) (*Server, error) {
	cfg := p.Config
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      p.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.TLS.Enable {
		certs, err := newCertReloader(p.Lifecycle, cfg.TLS.CertPath, cfg.TLS.KeyPath)
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = certs.Config()
	}
	return &Server{server: srv}, nil
}

func Run(lc fx.Lifecycle, srv *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", srv.server.Addr)
			if err != nil {
				return err
			}

			go func() {
				log := zap.L().With(zap.String("addr", lis.Addr().String()), zap.Bool("tls", srv.server.TLSConfig != nil))
				log.Info("http server started")

				if srv.server.TLSConfig != nil {
					// certificates come from GetCertificate
					err = srv.server.ServeTLS(lis, "", "")
				} else {
					err = srv.server.Serve(lis)
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server exited", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			zap.L().Info("http server shutting down")
			return srv.server.Shutdown(ctx)
		},
	})
}
