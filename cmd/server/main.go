package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mja2001/SolCipher-Cronos/internal/config"
	"github.com/mja2001/SolCipher-Cronos/internal/handler"
	"github.com/mja2001/SolCipher-Cronos/internal/middleware"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
	"github.com/mja2001/SolCipher-Cronos/internal/repository/memory"
	"github.com/mja2001/SolCipher-Cronos/internal/repository/postgres"
	"github.com/mja2001/SolCipher-Cronos/internal/service"
	"github.com/mja2001/SolCipher-Cronos/internal/verifier"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect storage
	var (
		paymentRepo repository.PaymentRepository
		proofRepo   repository.ProofRepository
		policyRepo  repository.PolicyRepository
		agentRepo   repository.AgentRepository
		eventRepo   repository.EventRepository
	)

	ctx := context.Background()
	if cfg.DatabaseURL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}
		log.Println("Database connection established")

		paymentRepo = postgres.NewPaymentRepository(dbPool)
		proofRepo = postgres.NewProofRepository(dbPool)
		policyRepo = postgres.NewPolicyRepository(dbPool)
		agentRepo = postgres.NewAgentRepository(dbPool)
		eventRepo = postgres.NewEventRepository(dbPool)
	} else {
		log.Println("DATABASE_URL not set, using in-memory storage (dev mode)")
		paymentRepo = memory.NewPaymentRepository()
		proofRepo = memory.NewProofRepository()
		policyRepo = memory.NewPolicyRepository()
		agentRepo = memory.NewAgentRepository()
		eventRepo = memory.NewEventRepository()
	}

	// 3. Proof verification capability
	var proofVerifier verifier.Verifier = verifier.Disabled{}
	if cfg.VerifyingKeyPath != "" {
		vkBytes, err := os.ReadFile(cfg.VerifyingKeyPath)
		if err != nil {
			log.Fatalf("Failed to read verifying key: %v", err)
		}
		g16, err := verifier.NewGroth16Verifier(vkBytes)
		if err != nil {
			log.Fatalf("Failed to parse verifying key: %v", err)
		}
		proofVerifier = g16
		log.Printf("Groth16 verifier loaded from %s", cfg.VerifyingKeyPath)
	} else {
		log.Println("GROTH16_VK_PATH not set, proof verification disabled")
	}

	var metadataKey []byte
	if cfg.MetadataKeyHex != "" {
		metadataKey, err = hex.DecodeString(cfg.MetadataKeyHex)
		if err != nil {
			log.Fatalf("Invalid METADATA_KEY: %v", err)
		}
	}

	// 4. Initialize layers
	authzService := service.NewAuthzService(agentRepo, cfg.AdminIdentity)
	policyService := service.NewPolicyService(policyRepo)
	ledgerService := service.NewLedgerService(paymentRepo, proofRepo, eventRepo, policyService, authzService)
	riskGate := service.NewRiskGate(ledgerService, authzService, int32(cfg.RiskDelta))
	proofService := service.NewProofService(proofRepo, paymentRepo, authzService, proofVerifier)

	if cfg.AgentIdentity != "" {
		if err := authzService.SetAuthorization(ctx, cfg.AdminIdentity, cfg.AgentIdentity, true); err != nil {
			log.Fatalf("Failed to authorize settlement agent: %v", err)
		}
	}

	paymentHandler := handler.NewPaymentHandler(ledgerService, riskGate, policyService, metadataKey)
	proofHandler := handler.NewProofHandler(proofService)
	policyHandler := handler.NewPolicyHandler(policyService)
	adminHandler := handler.NewAdminHandler(authzService)

	// 5. Setup HTTP router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"settlement"}`))
	})

	api := http.NewServeMux()
	paymentHandler.RegisterRoutes(api)
	proofHandler.RegisterRoutes(api)
	policyHandler.RegisterRoutes(api)
	adminHandler.RegisterRoutes(api)

	mux.Handle("/api/v1/", middleware.Auth(cfg.JWTSecret)(api))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      middleware.Logger(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 6. Graceful shutdown
	go func() {
		log.Printf("Settlement service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down settlement service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Settlement service stopped")
}
