package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
)

type smtpSettingWire struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
}

func (s *Server) handleGetSMTPSettings(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("w")
	setting, ok, err := s.settings.GetSMTP(r.Context(), s.db, warehouseID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	if !ok {
		writeError(s.logger, w, apierror.NotFound("smtp settings"))
		return
	}
	writeJSON(w, http.StatusOK, smtpSettingWire{Host: setting.Host, Port: setting.Port, Username: setting.Username})
}

type putSMTPSettingsRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handlePutSMTPSettings(w http.ResponseWriter, r *http.Request) {
	var req putSMTPSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID := r.PathValue("w")

	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		return s.settings.PutSMTP(r.Context(), tx, warehouseID, req.Host, req.Port, req.Username, req.Password, s.now())
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, smtpSettingWire{Host: req.Host, Port: req.Port, Username: req.Username})
}

type llmSettingWire struct {
	Provider string `json:"provider"`
}

func (s *Server) handleGetLLMSettings(w http.ResponseWriter, r *http.Request) {
	warehouseID := r.PathValue("w")
	setting, ok, err := s.settings.GetLLM(r.Context(), s.db, warehouseID)
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	if !ok {
		writeError(s.logger, w, apierror.NotFound("llm settings"))
		return
	}
	writeJSON(w, http.StatusOK, llmSettingWire{Provider: setting.Provider})
}

type putLLMSettingsRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

func (s *Server) handlePutLLMSettings(w http.ResponseWriter, r *http.Request) {
	var req putLLMSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID := r.PathValue("w")

	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		return s.settings.PutLLM(r.Context(), tx, warehouseID, req.Provider, req.APIKey, s.now())
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, llmSettingWire{Provider: req.Provider})
}
