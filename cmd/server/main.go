package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"portfolio-api/internal/config"
	"portfolio-api/internal/factory"
	"portfolio-api/internal/handler"
	"portfolio-api/internal/util"
)

func main() {
	// Initialize factory (which loads config and wires the security core)
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer f.Close()

	cfg := f.Config()
	router := setupRouter(f)

	var serverAddr string
	if cfg.Server.EnableTLS {
		serverAddr = fmt.Sprintf(":%d", cfg.Server.TLSPort)
	} else {
		serverAddr = cfg.GetServerAddress()
	}

	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Background sweeper for the in-memory detectors.
	g.Go(func() error {
		f.RunJanitor(ctx)
		return nil
	})

	var challengeServer *http.Server
	if cfg.Server.EnableTLS {
		server.TLSConfig = f.TLSManager().Config()

		if cfg.IsProduction() && cfg.Server.AutoCert {
			challengeServer = acmeChallengeServer(f)
			if challengeServer != nil {
				g.Go(func() error {
					util.Info("Starting HTTP challenge server on port 80")
					if err := challengeServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						return err
					}
					return nil
				})
			}
		}

		util.Info("Starting HTTPS server",
			util.String("environment", cfg.Environment),
			util.Int("port", cfg.Server.TLSPort),
			util.Bool("auto_cert", cfg.Server.AutoCert),
		)
	} else {
		util.Warn("Starting HTTP server - TLS is disabled",
			util.String("environment", cfg.Environment),
			util.Int("port", cfg.Server.Port),
		)
	}

	g.Go(func() error {
		err := listen(server, cfg)
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return shutdown(server, challengeServer)
	})

	util.Info("Server started successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.String("address", server.Addr),
	)

	if err := g.Wait(); err != nil {
		util.Error("Server exited with error", util.ErrorField(err))
	}
}

// setupRouter creates the HTTP router with all handlers using Chi.
func setupRouter(f *factory.Factory) http.Handler {
	gate := handler.NewGate(f.Tracker(), f.Limiter())
	authMW := handler.NewAuthMiddleware(f.Authenticator(), f.Tracker())
	chatHandler := handler.NewChatHandler(f.ChatService())
	contactHandler := handler.NewContactHandler(f.ContactService())
	securityHandler := handler.NewSecurityHandler(f.SecurityService(), f.Tracker(), f.Reporter())

	return handler.NewRouter(f.Config(), gate, authMW, chatHandler, contactHandler, securityHandler, util.Get())
}

// acmeChallengeServer serves ACME HTTP-01 challenges on port 80 when
// autocert is active.
func acmeChallengeServer(f *factory.Factory) *http.Server {
	manager := f.TLSManager().AutocertManager()
	if manager == nil {
		util.Fatal("AutoCert manager is not available in production")
		return nil
	}
	return &http.Server{
		Addr:    ":80",
		Handler: manager.HTTPHandler(nil),
	}
}

func listen(server *http.Server, cfg *config.Config) error {
	if cfg.Server.EnableTLS {
		if cfg.Server.CertFile != "" && cfg.Server.KeyFile != "" && !cfg.Server.AutoCert {
			return server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		}
		return server.ListenAndServeTLS("", "")
	}
	return server.ListenAndServe()
}

func shutdown(servers ...*http.Server) error {
	util.Info("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var firstErr error
	for _, srv := range servers {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			util.Error("Failed to shutdown server gracefully", util.ErrorField(err))
			if firstErr == nil {
				firstErr = err
			}
		} else {
			util.Info("Server shutdown completed")
		}
	}
	return firstErr
}
