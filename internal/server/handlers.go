package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"github.com/skataria/bookingagent/internal/agent"
	"github.com/skataria/bookingagent/internal/database"
)

const defaultSessionID = "default"

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
}

type chatResponse struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "AI Booking Agent API is running!",
		"endpoints": map[string]string{
			"/chat":   "POST - Send chat messages to the booking agent",
			"/reset":  "POST - Reset the conversation state",
			"/health": "GET - Check API health status",
		},
	})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "AI Booking Agent",
	})
}

// handleChat runs one conversation turn. The session is loaded from the
// store, the turn applied, and the updated state saved back before replying.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.UserInput == "" {
		respondError(w, http.StatusBadRequest, "user_input is required")
		return
	}

	sessionID := s.resolveSessionID(r, req.SessionID)
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadSession(sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply := s.agent.ProcessTurn(r.Context(), session, req.UserInput)

	if err := s.saveSession(session); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{Response: reply, Status: "success"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	// The body is optional; an empty or absent body resets the default session.
	_ = json.NewDecoder(r.Body).Decode(&req)

	sessionID := s.resolveSessionID(r, req.SessionID)
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.db.DeleteSession(sessionID); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Conversation state reset successfully",
	})
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	bookings, err := s.db.ListBookings(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bookings == nil {
		bookings = []database.Booking{}
	}
	respondJSON(w, http.StatusOK, bookings)
}

// handleBookingQR renders the booking's calendar event link as a PNG QR code.
func (s *Server) handleBookingQR(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	booking, err := s.db.GetBooking(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if booking == nil || booking.EventLink == "" {
		respondError(w, http.StatusNotFound, "booking not found")
		return
	}

	png, err := qrcode.Encode(booking.EventLink, qrcode.Medium, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// resolveSessionID prefers the request body, then the X-Session-ID header.
func (s *Server) resolveSessionID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if header := r.Header.Get("X-Session-ID"); header != "" {
		return header
	}
	return defaultSessionID
}

func (s *Server) loadSession(sessionID string) (*agent.Session, error) {
	record, err := s.db.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if record == nil {
		return agent.NewSession(sessionID), nil
	}
	return agent.UnmarshalSession(sessionID, record.State), nil
}

func (s *Server) saveSession(session *agent.Session) error {
	state, err := session.Marshal()
	if err != nil {
		return err
	}
	return s.db.SaveSession(session.ID, state)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
