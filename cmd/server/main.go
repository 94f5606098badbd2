package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/bkglobal/bkbot/internal/agent"
	"github.com/bkglobal/bkbot/internal/bot"
	"github.com/bkglobal/bkbot/internal/catalog"
	"github.com/bkglobal/bkbot/internal/config"
	"github.com/bkglobal/bkbot/internal/dedup"
	"github.com/bkglobal/bkbot/internal/erp"
	"github.com/bkglobal/bkbot/internal/intent"
	"github.com/bkglobal/bkbot/internal/session"
	"github.com/bkglobal/bkbot/internal/transport"
	"github.com/bkglobal/bkbot/internal/whatsapp"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("🚀 Starting BK GLOBAL WhatsApp bot...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	log.Printf("📋 Service: %s", cfg.ServiceName)
	log.Printf("🤖 OpenAI model: %s", cfg.OpenAIModel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session store: Redis when configured, in-memory otherwise
	var sessions session.Store
	if cfg.RedisURL != "" {
		log.Println("🔌 Connecting to Redis...")
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		sessions = redisStore
		log.Println("✅ Redis session store connected")
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
		log.Println("✅ In-memory session store initialized")
	}
	defer sessions.Close()

	// Catalog source: ERP when configured, CSV export otherwise
	var source catalog.Source
	var odoo *erp.OdooClient
	if cfg.UseOdoo() {
		log.Printf("🏭 Using Odoo catalog source: %s", cfg.OdooURL)
		odoo = erp.NewOdooClient(cfg.OdooURL, cfg.OdooDB, cfg.OdooUser, cfg.OdooPassword)
		source = erp.NewCatalogSource(odoo)
	} else {
		log.Printf("📄 Using CSV catalog source: %s", cfg.CatalogCSVURL)
		source = catalog.NewCSVSource(cfg.CatalogCSVURL)
	}

	index := catalog.NewIndex(source, catalog.Options{
		RefreshInterval: cfg.CatalogRefreshInterval,
		MaxStale:        cfg.CatalogMaxStale,
		FuzzyThreshold:  cfg.FuzzyThreshold,
	})
	index.Start(ctx)
	log.Println("✅ Catalog index started")

	// LLM: one model drives both the classifier and the tool loop
	var model llms.Model
	if cfg.OpenAIAPIKey != "" {
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.OpenAIModel),
		)
		if err != nil {
			log.Fatalf("❌ Failed to initialize OpenAI: %v", err)
		}
		log.Println("✅ OpenAI provider initialized")
	} else {
		log.Println("⚠️ OPENAI_API_KEY not set, running with rule-based classification only")
	}

	classifier := intent.NewLLMClassifier(model)

	var restock agent.RestockSource
	if odoo != nil {
		restock = odoo
	}
	var replyAgent *agent.Agent
	if model != nil {
		replyAgent = agent.New(model, index, restock, cfg.MaxToolIterations, cfg.SearchLimit)
	}

	wa := whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAPIBase)

	window := dedup.NewWindow(cfg.DedupTTL)
	defer window.Close()

	b := bot.New(sessions, window, index, classifier, replyAgent, wa, wa)
	log.Println("✅ Bot initialized")

	server := transport.NewServer(":"+cfg.Port, cfg.WhatsAppVerifyToken, b)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}()

	log.Println("✅ BK GLOBAL bot is running!")
	log.Printf("👂 Listening on port %s", cfg.Port)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("🛑 Received signal: %v", sig)
	log.Println("🔄 Shutting down gracefully...")

	cancel()
	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("⚠️ Error shutting down server: %v", err)
	}
	if err := sessions.Close(); err != nil {
		log.Printf("⚠️ Error closing session store: %v", err)
	}

	log.Println("👋 BK GLOBAL bot stopped")
}
