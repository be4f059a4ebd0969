package handler

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"batterella/internal/export"
	"batterella/internal/model"
	"batterella/internal/realtime"
	"batterella/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler handles the back-office endpoints.
type AdminHandler struct {
	service  service.AdminService
	hub      *realtime.Hub
	archiver export.Archiver
	logger   zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service service.AdminService, hub *realtime.Hub, archiver export.Archiver, logger zerolog.Logger) *AdminHandler {
	if archiver == nil {
		archiver = export.NewNopArchiver()
	}
	return &AdminHandler{
		service:  service,
		hub:      hub,
		archiver: archiver,
		logger:   logger.With().Str("handler", "admin").Logger(),
	}
}

// ExportCSV handles GET /api/admin/export-csv requests. With ?archive=true the
// export is also uploaded and its location returned in X-Archive-Location.
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ExportOrders(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, orders); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	name := export.FileName(time.Now())

	if r.URL.Query().Get("archive") == "true" {
		location, err := h.archiver.Archive(r.Context(), name, buf.Bytes())
		switch {
		case errors.Is(err, export.ErrArchiveDisabled):
			h.logger.Warn().Msg("archive requested but S3 is disabled")
		case err != nil:
			writeDomainError(w, err, h.logger)
			return
		default:
			w.Header().Set("X-Archive-Location", location)
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Stats handles GET /api/admin/stats requests.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// storageResponse is the storage stats payload.
type storageResponse struct {
	model.StorageStats
	RealtimeClients int `json:"realtimeClients"`
}

// Storage handles GET /api/admin/storage requests.
func (h *AdminHandler) Storage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.StorageStats(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	resp := storageResponse{StorageStats: stats}
	if h.hub != nil {
		resp.RealtimeClients = h.hub.Count()
	}

	writeJSON(w, http.StatusOK, resp)
}

// Reset handles DELETE /api/admin/data requests.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All data has been reset",
	})
}
