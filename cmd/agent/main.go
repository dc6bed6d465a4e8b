package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mja2001/SolCipher-Cronos/internal/config"
	"github.com/mja2001/SolCipher-Cronos/internal/orchestrator"
	"github.com/mja2001/SolCipher-Cronos/internal/repository"
	"github.com/mja2001/SolCipher-Cronos/internal/repository/memory"
	"github.com/mja2001/SolCipher-Cronos/internal/repository/postgres"
	"github.com/mja2001/SolCipher-Cronos/internal/riskclient"
	"github.com/mja2001/SolCipher-Cronos/internal/service"
	"github.com/mja2001/SolCipher-Cronos/internal/verifier"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.AgentIdentity == "" {
		log.Fatal("AGENT_IDENTITY is required for the settlement agent")
	}

	// 2. Connect storage
	var (
		paymentRepo repository.PaymentRepository
		proofRepo   repository.ProofRepository
		policyRepo  repository.PolicyRepository
		agentRepo   repository.AgentRepository
		eventRepo   repository.EventRepository
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// 3. Initialize services
	authzService := service.NewAuthzService(agentRepo, cfg.AdminIdentity)
	policyService := service.NewPolicyService(policyRepo)
	ledgerService := service.NewLedgerService(paymentRepo, proofRepo, eventRepo, policyService, authzService)
	riskGate := service.NewRiskGate(ledgerService, authzService, int32(cfg.RiskDelta))

	if err := authzService.SetAuthorization(ctx, cfg.AdminIdentity, cfg.AgentIdentity, true); err != nil {
		log.Fatalf("Failed to authorize settlement agent: %v", err)
	}

	// 4. Proof verification capability: the proof worker only runs when a
	// verifying key is configured.
	var proofService service.ProofService
	if cfg.VerifyingKeyPath != "" {
		vkBytes, err := os.ReadFile(cfg.VerifyingKeyPath)
		if err != nil {
			log.Fatalf("Failed to read verifying key: %v", err)
		}
		g16, err := verifier.NewGroth16Verifier(vkBytes)
		if err != nil {
			log.Fatalf("Failed to parse verifying key: %v", err)
		}
		proofService = service.NewProofService(proofRepo, paymentRepo, authzService, g16)
		log.Printf("Groth16 verifier loaded from %s", cfg.VerifyingKeyPath)
	} else {
		log.Println("GROTH16_VK_PATH not set, proof worker disabled")
	}

	var scorer orchestrator.Scorer
	if cfg.RiskServiceURL != "" {
		scorer = riskclient.NewClient(cfg.RiskServiceURL)
	} else {
		log.Println("RISK_SERVICE_URL not set, every payment gets the fallback score")
	}

	// 5. Run workers until interrupted
	orch := orchestrator.New(ledgerService, riskGate, proofService, policyService, scorer, orchestrator.Options{
		AgentIdentity:  cfg.AgentIdentity,
		RiskInterval:   cfg.RiskInterval,
		ProofInterval:  cfg.ProofInterval,
		ExpiryInterval: cfg.ExpiryInterval,
		PaymentTTL:     cfg.PaymentTTL,
		BatchSize:      cfg.ScanBatchSize,
	})

	log.Printf("Settlement agent %s starting (risk=%s proof=%s expiry=%s)",
		cfg.AgentIdentity, cfg.RiskInterval, cfg.ProofInterval, cfg.ExpiryInterval)
	orch.Run(ctx)

	log.Println("Settlement agent stopped")
}
