package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skataria/bookingagent/internal/agent"
	"github.com/skataria/bookingagent/internal/availability"
	"github.com/skataria/bookingagent/internal/database"
	"github.com/skataria/bookingagent/internal/testutil"
	"github.com/skataria/bookingagent/internal/timeparse"
)

func newTestServer(t *testing.T) (*Server, *testutil.FakeCalendar, *database.DB) {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	calendar := testutil.NewFakeCalendar(loc.String())
	db := database.NewTestDB(t)

	a := agent.New(agent.Config{
		Parser:    timeparse.New(loc),
		Resolver:  availability.New(calendar, loc),
		Calendar:  calendar,
		Completer: &testutil.FakeCompleter{},
		DB:        db,
	})

	return New(Config{DB: db, Agent: a, Port: 0}), calendar, db
}

func postChat(t *testing.T, handler http.Handler, sessionID, input string) chatResponse {
	t.Helper()

	body, err := json.Marshal(chatRequest{SessionID: sessionID, UserInput: input})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRootBanner(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AI Booking Agent API is running!")
}

func TestChatValidation(t *testing.T) {
	s, _, _ := newTestServer(t)

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("{nope")))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing user_input", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(`{"session_id":"s1"}`)))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// A full booking dialogue over HTTP: the session state persists in the store
// between requests.
func TestChatBookingFlow(t *testing.T) {
	s, calendar, db := newTestServer(t)
	handler := s.Handler()

	resp := postChat(t, handler, "s1", "Book a meeting tomorrow at 3 pm")
	assert.Equal(t, "success", resp.Status)
	assert.Contains(t, resp.Response, "is available")

	record, err := db.GetSession("s1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Contains(t, record.State, "booking_confirmation")

	resp = postChat(t, handler, "s1", "yes")
	assert.Contains(t, resp.Response, "Appointment booked successfully")

	created := calendar.CreatedEvents()
	require.Len(t, created, 1)
	assert.Equal(t, "Meeting via AI Booking Agent", created[0].Title)

	bookings, err := db.ListBookings(10)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
}

// Different session ids hold independent conversations.
func TestChatSessionIsolation(t *testing.T) {
	s, _, db := newTestServer(t)
	handler := s.Handler()

	postChat(t, handler, "s1", "Book a meeting tomorrow at 3 pm")

	resp := postChat(t, handler, "s2", "yes")
	assert.NotContains(t, resp.Response, "Appointment booked successfully")

	record, err := db.GetSession("s1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Contains(t, record.State, "booking_confirmation")
}

func TestChatSessionIDFromHeader(t *testing.T) {
	s, _, db := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(`{"user_input":"Book a meeting tomorrow at 3 pm"}`)))
	req.Header.Set("X-Session-ID", "header-session")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	record, err := db.GetSession("header-session")
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestReset(t *testing.T) {
	s, _, db := newTestServer(t)
	handler := s.Handler()

	postChat(t, handler, "s1", "Book a meeting tomorrow at 3 pm")

	req := httptest.NewRequest(http.MethodPost, "/reset", bytes.NewReader([]byte(`{"session_id":"s1"}`)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reset successfully")

	record, err := db.GetSession("s1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestListBookings(t *testing.T) {
	s, _, db := newTestServer(t)
	handler := s.Handler()

	t.Run("empty list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	t.Run("after a booking", func(t *testing.T) {
		start := time.Now().Add(24 * time.Hour)
		_, err := db.CreateBooking("s1", "book tomorrow", start, start.Add(30*time.Minute), "https://example.com/evt")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var bookings []database.Booking
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bookings))
		require.Len(t, bookings, 1)
		assert.Equal(t, "book tomorrow", bookings[0].Utterance)
	})
}

func TestBookingQR(t *testing.T) {
	s, _, db := newTestServer(t)
	handler := s.Handler()

	start := time.Now().Add(24 * time.Hour)
	id, err := db.CreateBooking("s1", "book tomorrow", start, start.Add(30*time.Minute), "https://example.com/evt")
	require.NoError(t, err)

	t.Run("renders PNG", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/bookings/%d/qr", id), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Body.Bytes())
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/9999/qr", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/bookings/abc/qr", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
