package groupcore

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// AuditLevel represents the severity recorded in the audit log.
type AuditLevel string

const (
	AuditLevelInfo  AuditLevel = "info"
	AuditLevelWarn  AuditLevel = "warn"
	AuditLevelError AuditLevel = "error"
)

// AuditLog is one append-only record of a mutation the Coordinator
// performed: who did what to which session, and when.
type AuditLog struct {
	SessionID  string
	ActorID    string
	Component  string
	Action     string
	Level      string
	Message    string
	Payload    string
	RequestID  string
	NodeID     string
	OccurredAt time.Time
}

// AuditRepository persists AuditLog entries. Installing one is optional;
// with none installed, RecordAudit only mirrors to the structured logger.
type AuditRepository interface {
	AppendAudit(entry *AuditLog) error
}

var (
	auditRepoMu sync.RWMutex
	auditRepo   AuditRepository

	nodeMetaMu sync.RWMutex
	nodeID     string
)

// SetAuditRepository installs the repository that will store audit events.
func SetAuditRepository(repo AuditRepository) {
	auditRepoMu.Lock()
	defer auditRepoMu.Unlock()
	auditRepo = repo
}

// SetNodeMetadata stores the process identifier stamped on audit entries.
func SetNodeMetadata(id string) {
	nodeMetaMu.Lock()
	defer nodeMetaMu.Unlock()
	nodeID = id
}

func getNodeID() string {
	nodeMetaMu.RLock()
	defer nodeMetaMu.RUnlock()
	return nodeID
}

// RecordAudit persists a structured audit entry and mirrors it to the
// structured logger. actorID is whatever caller identity the Coordinator
// already has in hand (organizer_id, participant_id) — there is no
// separate credential/session-auth layer to resolve it from.
func RecordAudit(ctx context.Context, level AuditLevel, sessionID, actorID, component, action, message string, fields map[string]any) {
	auditRepoMu.RLock()
	repo := auditRepo
	auditRepoMu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}
	_, reqID := WithRequestID(ctx)

	payload := ""
	if len(fields) > 0 {
		if data, err := json.Marshal(fields); err == nil {
			payload = string(data)
		}
	}

	if repo != nil {
		entry := &AuditLog{
			SessionID:  sessionID,
			ActorID:    actorID,
			Component:  component,
			Action:     action,
			Level:      string(level),
			Message:    message,
			Payload:    payload,
			RequestID:  reqID,
			NodeID:     getNodeID(),
			OccurredAt: time.Now(),
		}
		if err := repo.AppendAudit(entry); err != nil {
			Logger().Warn("audit_append_failed", "err", err, "component", component, "action", action)
		}
	}
	Logger().Info("audit", "session_id", sessionID, "actor_id", actorID, "component", component, "action", action, "level", level, "message", message, "request_id", reqID, "fields", fields)
}
