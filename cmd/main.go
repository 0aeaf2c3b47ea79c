package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"invoicepad/internal/clients"
	"invoicepad/internal/config"
	"invoicepad/internal/domain"
	"invoicepad/internal/editor"
	"invoicepad/internal/pricing"
	"invoicepad/internal/repository"
	"invoicepad/internal/service"
	"invoicepad/internal/transport/auth"
	"invoicepad/internal/transport/rest"
	"invoicepad/internal/transport/websocket"
	"invoicepad/pkg/database/postgres"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	redisClient := mustInitRedis(cfg.Redis)
	defer redisClient.Close()

	// Postgres only backs token auth; a single-user instance skips it.
	var db *sql.DB
	if !cfg.Auth.SingleUser {
		db = mustInitPostgres(cfg.Postgres)
		defer postgres.Close(db)
	}

	storageClient, err := clients.NewLocalStorage(cfg.RenderDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	invoiceRepo := repository.NewInvoiceRepository(redisClient)

	engine := pricing.NewEngine(pricing.Config{AllowNegativeRate: cfg.Pricing.AllowNegativeRate})
	invoiceSvc := service.NewInvoiceService(invoiceRepo, editor.UUIDSource{}, engine)
	renderSvc := service.NewRenderService(invoiceRepo, redisClient, storageClient, wsClient)

	if cfg.S3.Enabled {
		s3Client, err := clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.Fatalf("s3 init error: %v", err)
		}
		renderSvc.WithS3(s3Client)
	}

	var tokenRepo *repository.APITokenRepository
	var userRepo *repository.UserRepository
	var authMiddleware func(http.Handler) http.Handler
	if cfg.Auth.SingleUser {
		authMiddleware = auth.SingleUserMiddleware(cfg.Auth.Username)
	} else {
		tokenRepo = repository.NewAPITokenRepository(db)
		userRepo = repository.NewUserRepository(db)
		authMiddleware = auth.TokenMiddleware(tokenRepo)
	}

	handler := rest.NewHandler(invoiceSvc, renderSvc)
	router := handler.InitRouterWithAuth(authMiddleware)

	// public root router with the protected router mounted underneath so
	// /files and /health stay open while invoice routes require auth
	root := chi.NewRouter()

	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// public: serve rendered documents
	root.Get("/files/{file}", func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		path := filepath.Join(storageClient.BaseDir, filepath.Base(file))
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		// prefer original filename in Content-Disposition (strip random prefix)
		orig := file
		if idx := strings.IndexByte(file, '_'); idx >= 0 {
			orig = file[idx+1:]
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", orig))

		http.ServeFile(w, r, path)
	})

	// protected: who am I
	router.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		username, err := auth.GetUsername(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user := &domain.User{Username: username}
		if userRepo != nil {
			if u, err := userRepo.FindByUsername(r.Context(), username); err == nil {
				user = u
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(user)
	})

	// protected websocket endpoint
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		username, err := auth.GetUsername(r.Context())
		if err != nil {
			token := r.URL.Query().Get("token")
			if token == "" || tokenRepo == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			apiToken, err2 := tokenRepo.FindByPlainToken(r.Context(), token)
			if err2 != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if apiToken.ExpiresAt != nil && apiToken.ExpiresAt.Before(time.Now()) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			username = apiToken.Username
		}

		log.Printf("WS connected: username=%s", username)
		wsHub.HandleWebSocket(w, r, username)
	})

	root.Mount("/", router)

	corsHandler := withCORS(root)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// delete rendered files the download window has passed on
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := storageClient.CleanupOlderThan(30 * time.Minute); err != nil {
					log.Printf("storage cleanup error: %v", err)
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Shutdown signal received: %v", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}

		// stop the websocket hub and background cleaner
		cancel()

		if db != nil {
			postgres.Close(db)
		}
		redisClient.Close()

		log.Println("Shutdown complete")
	}
}

func mustInitPostgres(cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
