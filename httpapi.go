// httpapi.go
package groupcore

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// ======================
// Helpers
// ======================

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// statusForKind maps a Kind to the HTTP status code an API client should
// see. Anything not listed here falls through to 500.
func statusForKind(k Kind) int {
	switch k {
	case KindNotFound, KindVenueNotFound, KindItemNotFound:
		return http.StatusNotFound
	case KindValidation, KindTooLong:
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindExpired, KindRevoked, KindFinalized:
		return http.StatusBadRequest
	case KindNotOrganizer:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, err error) {
	ge, ok := err.(*Error)
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondError(w, statusForKind(ge.Kind), ge.Error())
}

// NewRouter wires every HTTP endpoint to coordinator, including the
// WebSocket upgrade route. It registers no middleware (request ID, logging,
// recovery) of its own.
func NewRouter(coordinator *Coordinator) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/sessions", handleCreateSession(coordinator)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session_id}", handleGetSession(coordinator)).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session_id}/state", handleGetSessionState(coordinator)).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session_id}/finalize", handleFinalizeSession(coordinator)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session_id}/invite", handleRevokeInvite(coordinator)).Methods(http.MethodDelete)

	r.HandleFunc("/join/{token}", handleJoinSession(coordinator)).Methods(http.MethodPost)

	r.HandleFunc("/sessions/{session_id}/venues", handleAddVenue(coordinator)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session_id}/venues", handleGetVenues(coordinator)).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session_id}/venues/{venue_id}/votes", handleCastVote(coordinator)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session_id}/venues/{venue_id}/tally", handleTally(coordinator)).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session_id}/ranking", handleRankVenues(coordinator)).Methods(http.MethodGet)

	r.HandleFunc("/sessions/{session_id}/itinerary", handleAddItineraryItem(coordinator)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session_id}/itinerary", handleGetItinerary(coordinator)).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{session_id}/itinerary/{item_id}", handleRemoveItineraryItem(coordinator)).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{session_id}/itinerary/reorder", handleReorderItinerary(coordinator)).Methods(http.MethodPost)

	r.HandleFunc("/sessions/{session_id}/venues/{venue_id}/comments", handleAddComment(coordinator)).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{session_id}/venues/{venue_id}/comments", handleGetComments(coordinator)).Methods(http.MethodGet)

	r.HandleFunc("/sessions/{session_id}/ws", ServeSessionWS(coordinator))

	return r
}

// ======================
// Session lifecycle
// ======================

type createSessionRequest struct {
	OrganizerID string `json:"organizer_id"`
	Name        string `json:"name"`
	ExpiryHours int    `json:"expiry_hours"`
}

type createSessionResponse struct {
	Session     *Session `json:"session"`
	InviteToken string   `json:"invite_token"`
}

func handleCreateSession(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		s, token, err := c.CreateSession(r.Context(), req.OrganizerID, req.Name, req.ExpiryHours)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, createSessionResponse{Session: s, InviteToken: token})
	}
}

func handleGetSession(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		s, err := c.GetSession(sessionID)
		if err != nil {
			respondErr(w, err)
			return
		}
		if s == nil {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		respondJSON(w, http.StatusOK, s)
	}
}

func handleGetSessionState(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		state, err := c.SessionState(sessionID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, state)
	}
}

func handleFinalizeSession(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		callerID := r.URL.Query().Get("caller_id")
		summary, err := c.FinalizeSession(r.Context(), sessionID, callerID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	}
}

func handleRevokeInvite(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		callerID := r.URL.Query().Get("caller_id")
		if err := c.RevokeInvite(r.Context(), sessionID, callerID); err != nil {
			respondErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type joinSessionRequest struct {
	DisplayName   string `json:"display_name"`
	ParticipantID string `json:"participant_id"`
}

func handleJoinSession(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := mux.Vars(r)["token"]
		var req joinSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		participant, err := c.JoinSession(r.Context(), token, req.DisplayName, req.ParticipantID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, participant)
	}
}

// ======================
// Venues & votes
// ======================

type addVenueRequest struct {
	PlaceID     string   `json:"place_id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	SuggestedBy string   `json:"suggested_by"`
	Rating      *float64 `json:"rating,omitempty"`
	PriceLevel  *int     `json:"price_level,omitempty"`
	PhotoURL    *string  `json:"photo_url,omitempty"`
}

func handleAddVenue(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		var req addVenueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		venue, err := c.AddVenue(r.Context(), sessionID, req.PlaceID, req.Name, req.Address, req.SuggestedBy, req.Rating, req.PriceLevel, req.PhotoURL)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, venue)
	}
}

func handleGetVenues(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		venues, err := c.GetVenues(sessionID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, venues)
	}
}

type castVoteRequest struct {
	ParticipantID string   `json:"participant_id"`
	VoteType      VoteType `json:"vote_type"`
}

func handleCastVote(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		var req castVoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		vote, err := c.CastVote(r.Context(), vars["session_id"], vars["venue_id"], req.ParticipantID, req.VoteType)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, vote)
	}
}

func handleTally(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		tally, err := c.Tally(vars["session_id"], vars["venue_id"])
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tally)
	}
}

func handleRankVenues(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		ranked, err := c.RankVenues(sessionID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ranked)
	}
}

// ======================
// Itinerary
// ======================

type addItineraryItemRequest struct {
	VenueID       string    `json:"venue_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	AddedBy       string    `json:"added_by"`
}

func handleAddItineraryItem(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		var req addItineraryItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		item, err := c.AddToItinerary(r.Context(), sessionID, req.VenueID, req.ScheduledTime, req.AddedBy)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, item)
	}
}

func handleGetItinerary(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		items, err := c.GetItinerary(sessionID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, items)
	}
}

func handleRemoveItineraryItem(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		callerID := r.URL.Query().Get("caller_id")
		if err := c.RemoveFromItinerary(r.Context(), vars["session_id"], vars["item_id"], callerID); err != nil {
			respondErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reorderItineraryRequest struct {
	ItemIDs  []string `json:"item_ids"`
	CallerID string   `json:"caller_id"`
}

func handleReorderItinerary(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["session_id"]
		var req reorderItineraryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		ordered, err := c.Reorder(r.Context(), sessionID, req.ItemIDs, req.CallerID)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ordered)
	}
}

// ======================
// Comments
// ======================

type addCommentRequest struct {
	ParticipantID string `json:"participant_id"`
	Text          string `json:"text"`
}

func handleAddComment(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		var req addCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		comment, err := c.AddComment(r.Context(), vars["session_id"], vars["venue_id"], req.ParticipantID, req.Text)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, comment)
	}
}

func handleGetComments(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		comments, err := c.GetComments(vars["session_id"], vars["venue_id"])
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, comments)
	}
}
