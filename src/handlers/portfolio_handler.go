// src/handlers/portfolio_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/username/tradefolio/src/logger"
	"github.com/username/tradefolio/src/processors"
	"github.com/username/tradefolio/src/services"
	"github.com/username/tradefolio/src/storage"
	"github.com/username/tradefolio/src/utils"
)

// PortfolioHandler serves the read-only status API over the trade ledger.
type PortfolioHandler struct {
	store        *storage.TradeStore
	processor    *processors.PortfolioProcessor
	priceService services.PriceService
}

func NewPortfolioHandler(store *storage.TradeStore, processor *processors.PortfolioProcessor, priceService services.PriceService) *PortfolioHandler {
	return &PortfolioHandler{
		store:        store,
		processor:    processor,
		priceService: priceService,
	}
}

// HandleGetPortfolio recomputes the portfolio summary from the full ledger,
// enriched with live prices.
func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Rows()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error reading trade ledger: %v", err), http.StatusInternalServerError)
		return
	}
	logger.L.Info("Handling GetPortfolio", "ledgerRows", len(rows)-1)

	summary := h.processor.Process(rows, h.priceService.PriceFor)
	utils.WriteJSON(w, http.StatusOK, summary)
}

// HandleGetTrades returns the raw ledger grid.
func (h *PortfolioHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Rows()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error reading trade ledger: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"headers": rows[0],
		"rows":    rows[1:],
	})
}

// HandleHealthz reports process liveness.
func (h *PortfolioHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
