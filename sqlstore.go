// sqlstore.go
package groupcore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLStore is the production Store backend, wrapping a SQLite database
// through database/sql.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore opens dsn and applies the schema migration.
func NewSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	organizer_id TEXT NOT NULL,
	invite_token_hash TEXT NOT NULL UNIQUE,
	invite_expires_at DATETIME NOT NULL,
	invite_revoked INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	participant_ids TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS sessions_updated_at_idx ON sessions(updated_at);

CREATE TABLE IF NOT EXISTS participants (
	id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	display_name TEXT NOT NULL,
	joined_at DATETIME NOT NULL,
	is_organizer INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (session_id, id)
);

CREATE TABLE IF NOT EXISTS venues (
	id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	place_id TEXT NOT NULL,
	name TEXT NOT NULL,
	address TEXT,
	rating REAL,
	price_level INTEGER,
	photo_url TEXT,
	suggested_at DATETIME NOT NULL,
	suggested_by TEXT NOT NULL,
	PRIMARY KEY (session_id, id)
);

CREATE TABLE IF NOT EXISTS votes (
	id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	venue_id TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	vote_type TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, venue_id, participant_id)
);

CREATE TABLE IF NOT EXISTS itinerary_items (
	id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	venue_id TEXT NOT NULL,
	scheduled_time DATETIME NOT NULL,
	added_at DATETIME NOT NULL,
	added_by TEXT NOT NULL,
	item_order INTEGER NOT NULL,
	PRIMARY KEY (session_id, id)
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT NOT NULL,
	session_id TEXT NOT NULL,
	venue_id TEXT NOT NULL,
	participant_id TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, id)
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT,
	actor_id TEXT,
	component TEXT NOT NULL,
	action TEXT NOT NULL,
	level TEXT NOT NULL,
	message TEXT,
	payload TEXT,
	request_id TEXT,
	node_id TEXT,
	occurred_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_component_idx ON audit_logs(component, action);
`
	_, err := s.db.Exec(schema)
	return err
}

// ---------- sessions ----------

func (s *SQLStore) CreateSession(sess *Session) error {
	ids, err := json.Marshal(sess.ParticipantIDs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO sessions
		(id, name, organizer_id, invite_token_hash, invite_expires_at, invite_revoked, status, created_at, updated_at, participant_ids)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		sess.ID, sess.Name, sess.OrganizerID, sess.InviteTokenHash, sess.InviteExpiresAt,
		boolToInt(sess.InviteRevoked), string(sess.Status), sess.CreatedAt, sess.UpdatedAt, string(ids))
	return err
}

func (s *SQLStore) scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	var revoked int
	var status string
	var ids string
	if err := row.Scan(&sess.ID, &sess.Name, &sess.OrganizerID, &sess.InviteTokenHash, &sess.InviteExpiresAt,
		&revoked, &status, &sess.CreatedAt, &sess.UpdatedAt, &ids); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	sess.InviteRevoked = revoked != 0
	sess.Status = SessionStatus(status)
	if err := json.Unmarshal([]byte(ids), &sess.ParticipantIDs); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SQLStore) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(`SELECT id, name, organizer_id, invite_token_hash, invite_expires_at,
		invite_revoked, status, created_at, updated_at, participant_ids FROM sessions WHERE id=?`, id)
	return s.scanSession(row)
}

func (s *SQLStore) GetSessionByTokenHash(tokenHash string) (*Session, error) {
	row := s.db.QueryRow(`SELECT id, name, organizer_id, invite_token_hash, invite_expires_at,
		invite_revoked, status, created_at, updated_at, participant_ids FROM sessions WHERE invite_token_hash=?`, tokenHash)
	return s.scanSession(row)
}

func (s *SQLStore) UpdateSession(sess *Session) error {
	ids, err := json.Marshal(sess.ParticipantIDs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE sessions SET name=?, invite_revoked=?, status=?, updated_at=?, participant_ids=?
		WHERE id=?`, sess.Name, boolToInt(sess.InviteRevoked), string(sess.Status), sess.UpdatedAt, string(ids), sess.ID)
	return err
}

func (s *SQLStore) ListSessionsOlderThan(cutoff time.Time, exclude SessionStatus) ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, name, organizer_id, invite_token_hash, invite_expires_at,
		invite_revoked, status, created_at, updated_at, participant_ids FROM sessions
		WHERE updated_at < ? AND status != ?`, cutoff, string(exclude))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var revoked int
		var status string
		var ids string
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.OrganizerID, &sess.InviteTokenHash, &sess.InviteExpiresAt,
			&revoked, &status, &sess.CreatedAt, &sess.UpdatedAt, &ids); err != nil {
			return nil, err
		}
		sess.InviteRevoked = revoked != 0
		sess.Status = SessionStatus(status)
		if err := json.Unmarshal([]byte(ids), &sess.ParticipantIDs); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ---------- participants ----------

func (s *SQLStore) AddParticipant(p *Participant) error {
	_, err := s.db.Exec(`INSERT INTO participants (id, session_id, display_name, joined_at, is_organizer)
		VALUES (?,?,?,?,?)`, p.ID, p.SessionID, p.DisplayName, p.JoinedAt, boolToInt(p.IsOrganizer))
	return err
}

func (s *SQLStore) GetParticipants(sessionID string) ([]Participant, error) {
	rows, err := s.db.Query(`SELECT id, session_id, display_name, joined_at, is_organizer
		FROM participants WHERE session_id=?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		var isOrg int
		if err := rows.Scan(&p.ID, &p.SessionID, &p.DisplayName, &p.JoinedAt, &isOrg); err != nil {
			return nil, err
		}
		p.IsOrganizer = isOrg != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---------- venues ----------

func (s *SQLStore) AddVenue(v *VenueOption) error {
	_, err := s.db.Exec(`INSERT INTO venues (id, session_id, place_id, name, address, rating, price_level, photo_url, suggested_at, suggested_by)
		VALUES (?,?,?,?,?,?,?,?,?,?)`, v.ID, v.SessionID, v.PlaceID, v.Name, v.Address, v.Rating, v.PriceLevel, v.PhotoURL, v.SuggestedAt, v.SuggestedBy)
	return err
}

func (s *SQLStore) GetVenue(sessionID, venueID string) (*VenueOption, error) {
	row := s.db.QueryRow(`SELECT id, session_id, place_id, name, address, rating, price_level, photo_url, suggested_at, suggested_by
		FROM venues WHERE session_id=? AND id=?`, sessionID, venueID)
	var v VenueOption
	if err := row.Scan(&v.ID, &v.SessionID, &v.PlaceID, &v.Name, &v.Address, &v.Rating, &v.PriceLevel, &v.PhotoURL, &v.SuggestedAt, &v.SuggestedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (s *SQLStore) GetVenues(sessionID string) ([]VenueOption, error) {
	rows, err := s.db.Query(`SELECT id, session_id, place_id, name, address, rating, price_level, photo_url, suggested_at, suggested_by
		FROM venues WHERE session_id=?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VenueOption
	for rows.Next() {
		var v VenueOption
		if err := rows.Scan(&v.ID, &v.SessionID, &v.PlaceID, &v.Name, &v.Address, &v.Rating, &v.PriceLevel, &v.PhotoURL, &v.SuggestedAt, &v.SuggestedBy); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ---------- votes ----------

func (s *SQLStore) UpsertVote(v *Vote) error {
	_, err := s.db.Exec(`INSERT INTO votes (id, session_id, venue_id, participant_id, vote_type, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(session_id, venue_id, participant_id)
		DO UPDATE SET vote_type=excluded.vote_type, updated_at=excluded.updated_at`,
		v.ID, v.SessionID, v.VenueID, v.ParticipantID, string(v.VoteType), v.CreatedAt, v.UpdatedAt)
	return err
}

func (s *SQLStore) GetVote(sessionID, venueID, participantID string) (*Vote, error) {
	row := s.db.QueryRow(`SELECT id, session_id, venue_id, participant_id, vote_type, created_at, updated_at
		FROM votes WHERE session_id=? AND venue_id=? AND participant_id=?`, sessionID, venueID, participantID)
	var v Vote
	var voteType string
	if err := row.Scan(&v.ID, &v.SessionID, &v.VenueID, &v.ParticipantID, &voteType, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	v.VoteType = VoteType(voteType)
	return &v, nil
}

func (s *SQLStore) queryVotes(query string, args ...any) ([]Vote, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vote
	for rows.Next() {
		var v Vote
		var voteType string
		if err := rows.Scan(&v.ID, &v.SessionID, &v.VenueID, &v.ParticipantID, &voteType, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		v.VoteType = VoteType(voteType)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetVotesForVenue(sessionID, venueID string) ([]Vote, error) {
	return s.queryVotes(`SELECT id, session_id, venue_id, participant_id, vote_type, created_at, updated_at
		FROM votes WHERE session_id=? AND venue_id=?`, sessionID, venueID)
}

func (s *SQLStore) GetVotesForSession(sessionID string) ([]Vote, error) {
	return s.queryVotes(`SELECT id, session_id, venue_id, participant_id, vote_type, created_at, updated_at
		FROM votes WHERE session_id=?`, sessionID)
}

// ---------- itinerary ----------

func (s *SQLStore) GetItinerary(sessionID string) ([]ItineraryItem, error) {
	rows, err := s.db.Query(`SELECT id, session_id, venue_id, scheduled_time, added_at, added_by, item_order
		FROM itinerary_items WHERE session_id=?`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItineraryItem
	for rows.Next() {
		var item ItineraryItem
		if err := rows.Scan(&item.ID, &item.SessionID, &item.VenueID, &item.ScheduledTime, &item.AddedAt, &item.AddedBy, &item.Order); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ReplaceItinerary overwrites a session's entire itinerary in one
// transaction, since every mutation re-indexes the whole ordering.
func (s *SQLStore) ReplaceItinerary(sessionID string, items []ItineraryItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM itinerary_items WHERE session_id=?`, sessionID); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := tx.Exec(`INSERT INTO itinerary_items (id, session_id, venue_id, scheduled_time, added_at, added_by, item_order)
			VALUES (?,?,?,?,?,?,?)`, item.ID, sessionID, item.VenueID, item.ScheduledTime, item.AddedAt, item.AddedBy, item.Order); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ---------- comments ----------

func (s *SQLStore) AddComment(c *Comment) error {
	_, err := s.db.Exec(`INSERT INTO comments (id, session_id, venue_id, participant_id, text, created_at)
		VALUES (?,?,?,?,?,?)`, c.ID, c.SessionID, c.VenueID, c.ParticipantID, c.Text, c.CreatedAt)
	return err
}

func (s *SQLStore) GetComments(sessionID, venueID string) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT id, session_id, venue_id, participant_id, text, created_at
		FROM comments WHERE session_id=? AND venue_id=?`, sessionID, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func (s *SQLStore) GetParticipantComments(sessionID, participantID string) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT id, session_id, venue_id, participant_id, text, created_at
		FROM comments WHERE session_id=? AND participant_id=?`, sessionID, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func scanComments(rows *sql.Rows) ([]Comment, error) {
	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.SessionID, &c.VenueID, &c.ParticipantID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---------- audit ----------

var _ AuditRepository = (*SQLStore)(nil)

func (s *SQLStore) AppendAudit(entry *AuditLog) error {
	_, err := s.db.Exec(`INSERT INTO audit_logs (session_id, actor_id, component, action, level, message, payload, request_id, node_id, occurred_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		nullableString(entry.SessionID), nullableString(entry.ActorID), entry.Component, entry.Action, entry.Level,
		entry.Message, entry.Payload, entry.RequestID, entry.NodeID, entry.OccurredAt)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
