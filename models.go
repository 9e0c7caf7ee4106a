// models.go
package groupcore

import "time"

// ---------- enums ----------

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	StatusActive     SessionStatus = "active"
	StatusFinalized  SessionStatus = "finalized"
	StatusArchived   SessionStatus = "archived"
)

// VoteType is a participant's stance on a venue.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
	Neutral  VoteType = "neutral"
)

// ---------- core models ----------

// Session is a bounded collaboration context with an invite, a participant
// set, and a one-way lifecycle.
type Session struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	OrganizerID     string        `json:"organizer_id"`
	InviteTokenHash string        `json:"-"`
	InviteExpiresAt time.Time     `json:"invite_expires_at"`
	InviteRevoked   bool          `json:"invite_revoked"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	ParticipantIDs  []string      `json:"participant_ids"`
}

// Participant is a joined member of a Session.
type Participant struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	IsOrganizer bool      `json:"is_organizer"`
}

// VenueOption is a candidate place under consideration in a Session.
type VenueOption struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	PlaceID     string    `json:"place_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Rating      *float64  `json:"rating,omitempty"`
	PriceLevel  *int      `json:"price_level,omitempty"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	SuggestedAt time.Time `json:"suggested_at"`
	SuggestedBy string    `json:"suggested_by"`
}

// Vote is a single participant's stance on a venue, upserted on recast.
type Vote struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	VenueID       string    `json:"venue_id"`
	ParticipantID string    `json:"participant_id"`
	VoteType      VoteType  `json:"vote_type"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ItineraryItem schedules a venue to a time within a Session.
type ItineraryItem struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	VenueID       string    `json:"venue_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	AddedAt       time.Time `json:"added_at"`
	AddedBy       string    `json:"added_by"`
	Order         int       `json:"order"`
}

// Comment is a short text note attached to a venue. Append-only.
type Comment struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	VenueID       string    `json:"venue_id"`
	ParticipantID string    `json:"participant_id"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}

// SessionSummary is the sealed snapshot produced once, on finalization.
type SessionSummary struct {
	SessionID    string          `json:"session_id"`
	SessionName  string          `json:"session_name"`
	FinalizedAt  time.Time       `json:"finalized_at"`
	Participants []Participant   `json:"participants"`
	Itinerary    []ItineraryItem `json:"itinerary"`
	ShareURL     string          `json:"share_url"`
}

// Tally is the aggregated vote count and net score for a venue.
type Tally struct {
	Upvotes   int      `json:"upvotes"`
	Downvotes int      `json:"downvotes"`
	Neutral   int      `json:"neutral"`
	Voters    []string `json:"voters"`
	NetScore  int      `json:"net_score"`
	Total     int      `json:"total"`
}

// RankedVenue is one row of VoteEngine.RankVenues's output.
type RankedVenue struct {
	Venue   VenueOption `json:"venue"`
	Tally   Tally       `json:"tally"`
	Rank    int         `json:"rank"`
	IsTied  bool        `json:"is_tied"`
}

// SessionState is the full-session snapshot StateSync composes and
// BroadcastHub delivers to a (re)connecting participant.
type SessionState struct {
	SessionID    string               `json:"session_id"`
	Status       SessionStatus        `json:"status"`
	Participants []Participant        `json:"participants"`
	Venues       []VenueOption        `json:"venues"`
	Itinerary    []ItineraryItem      `json:"itinerary"`
	Tallies      map[string]Tally     `json:"tallies"`
	Comments     map[string][]Comment `json:"comments"`
}
