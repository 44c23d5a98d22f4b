package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/username/tradefolio/src/config"
	"github.com/username/tradefolio/src/database"
	"github.com/username/tradefolio/src/handlers"
	"github.com/username/tradefolio/src/logger"
	"github.com/username/tradefolio/src/parsers"
	"github.com/username/tradefolio/src/processors"
	"github.com/username/tradefolio/src/services"
	"github.com/username/tradefolio/src/storage"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// runDiagnostics verifies that the mailbox is reachable before scanning.
func runDiagnostics(scout services.MailScout) {
	logger.L.Info("Running system diagnostics...")

	if err := scout.TestConnection(); err != nil {
		if errors.Is(err, services.ErrMailboxLogin) {
			logger.L.Error("Email authentication failed. Check EMAIL_USER/EMAIL_PASS and use an app password.", "error", err)
		} else {
			logger.L.Error("Mailbox diagnostics failed", "error", err)
		}
		os.Exit(1)
	}

	logger.L.Info("All systems green. Starting ingestion run.")
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Tradefolio ingestion bot starting...")

	if config.Cfg.DryRun {
		logger.L.Warn("DRY RUN MODE ENABLED: no trades will be recorded")
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	store := storage.NewTradeStore(database.DB)
	if err := store.LoadOrderIDs(); err != nil {
		logger.L.Error("Failed to load existing order IDs", "error", err)
		os.Exit(1)
	}

	scout := services.NewMailScout(config.Cfg)
	priceService := services.NewPriceService()
	processor := processors.NewPortfolioProcessor()

	runDiagnostics(scout)

	log := logger.L.With("runID", uuid.NewString())
	log.Info("Scanning for new trade emails...")

	messages, err := scout.FetchTradeEmails()
	if err != nil {
		log.Error("Mailbox scan failed", "error", err)
		os.Exit(1)
	}

	emailsProcessed := 0
	tradesRecorded := 0

	for _, msg := range messages {
		emailsProcessed++

		trades := parsers.ParserFor(msg.Subject).Parse(msg.Subject, msg.Body)
		if len(trades) == 0 {
			log.Warn("Failed to parse any trade from email", "subject", msg.Subject)
			continue
		}

		for _, trade := range trades {
			log.Info("Extracted trade", "symbol", trade.Symbol, "side", trade.Side, "price", trade.Price)

			if config.Cfg.DryRun {
				log.Info("[DRY RUN] Would record trade",
					"symbol", trade.Symbol, "side", trade.Side,
					"quantity", trade.Quantity, "total", trade.TotalAmount, "orderID", trade.OrderID)
				continue
			}

			inserted, err := store.AppendTrade(trade)
			if err != nil {
				log.Error("Failed to record trade", "symbol", trade.Symbol, "error", err)
				continue
			}
			if !inserted {
				log.Warn("Duplicate trade detected, skipping", "orderID", trade.OrderID)
				continue
			}
			tradesRecorded++
		}
	}

	logPortfolioSummary(log, store, processor, priceService)

	log.Info("Ingestion run finished", "emailsScanned", emailsProcessed, "tradesRecorded", tradesRecorded)
	if emailsProcessed == 0 {
		log.Info("No unread trade emails found. Mark a confirmation email as unread to reprocess it.")
	}

	if config.Cfg.ServeAPI {
		serveAPI(store, processor, priceService)
	}
}

// logPortfolioSummary recomputes the aggregate view from the full ledger and
// logs the headline numbers.
func logPortfolioSummary(log *slog.Logger, store *storage.TradeStore, processor *processors.PortfolioProcessor, priceService services.PriceService) {
	rows, err := store.Rows()
	if err != nil {
		log.Error("Failed to read ledger for portfolio summary", "error", err)
		return
	}

	summary := processor.Process(rows, priceService.PriceFor)
	log.Info("Portfolio summary",
		"holdings", len(summary.Holdings),
		"totalRealized", summary.TotalRealized,
		"totalUnrealized", summary.TotalUnrealized,
		"totalChange", summary.TotalChange,
		"roiPct", summary.ROIPercent)
}

func serveAPI(store *storage.TradeStore, processor *processors.PortfolioProcessor, priceService services.PriceService) {
	h := handlers.NewPortfolioHandler(store, processor, priceService)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(rateLimitMiddleware)

	r.Get("/healthz", h.HandleHealthz)
	r.Get("/api/portfolio", h.HandleGetPortfolio)
	r.Get("/api/trades", h.HandleGetTrades)

	addr := ":" + config.Cfg.Port
	logger.L.Info("Status API listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.L.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
