package httpapi

import (
	"database/sql"
	"net/http"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}

	var userID string
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		user, err := s.auth.Signup(r.Context(), tx, req.Email, req.Password, s.now())
		if err != nil {
			return err
		}
		userID = user.ID
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": userID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}

	var session sessionResponse
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		sess, err := s.auth.Login(r.Context(), tx, req.Email, req.Password, s.now())
		if err != nil {
			return err
		}
		session = sessionResponse{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}

	var session sessionResponse
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		sess, err := s.auth.Refresh(r.Context(), tx, req.RefreshToken, s.now())
		if err != nil {
			return err
		}
		session = sessionResponse{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type passwordResetRequestRequest struct {
	Email string `json:"email"`
}

func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}

	var token string
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		t, err := s.auth.RequestPasswordReset(r.Context(), tx, req.Email, s.now())
		token = t
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token})
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}

	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		return s.auth.ConfirmPasswordReset(r.Context(), tx, req.Token, req.NewPassword, s.now())
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

type createWarehouseRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	userID := userIDFromContext(r.Context())

	var warehouseID string
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		wh, err := s.auth.CreateWarehouse(r.Context(), tx, userID, req.Name, s.now())
		if err != nil {
			return err
		}
		warehouseID = wh.ID
		return nil
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": warehouseID})
}

type createInviteRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	warehouseID := r.PathValue("w")
	userID := userIDFromContext(r.Context())

	var token string
	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		t, _, err := s.membership.CreateInvite(r.Context(), tx, warehouseID, req.Email, userID, s.now())
		token = t
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token})
}

type acceptInviteRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.logger, w, err)
		return
	}
	userID := userIDFromContext(r.Context())

	err := s.withTx(r.Context(), func(tx *sql.Tx) error {
		_, err := s.membership.AcceptInvite(r.Context(), tx, req.Token, userID, req.Email, s.now())
		return err
	})
	if err != nil {
		writeError(s.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}
