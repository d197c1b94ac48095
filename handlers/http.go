package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"henbot/commands"
	"henbot/services/botconfig"
	"henbot/services/usagecost"
)

// StatusHTTPHandler serves the operational surface: a liveness check plus a
// small status report of registered commands, config version and LLM spend.
type StatusHTTPHandler struct {
	registry  *commands.Registry
	botConfig *botconfig.BotConfigService
	usage     *usagecost.UsageCostService
	startedAt time.Time
}

func NewStatusHTTPHandler(
	registry *commands.Registry,
	botConfig *botconfig.BotConfigService,
	usage *usagecost.UsageCostService,
) *StatusHTTPHandler {
	return &StatusHTTPHandler{
		registry:  registry,
		botConfig: botConfig,
		usage:     usage,
		startedAt: time.Now(),
	}
}

// SetupEndpoints registers the handler's routes on the router.
func (h *StatusHTTPHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/health", h.handleHealth).Methods("GET")
	router.HandleFunc("/status", h.handleStatus).Methods("GET")
}

func (h *StatusHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		log.Printf("❌ Failed to write health check response: %v", err)
	}
}

func (h *StatusHTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	commandNames := make([]string, 0)
	for _, cmd := range h.registry.All() {
		commandNames = append(commandNames, cmd.Name)
	}

	payload := map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"commands":       commandNames,
		"config_version": h.botConfig.Version(),
		"llm_usage":      h.usage.Totals(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("❌ Failed to write status response: %v", err)
	}
}
