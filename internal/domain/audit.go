package domain

import "time"

// AuditAction names a recorded triage step.
type AuditAction string

const (
	AuditActionAgentPlan       AuditAction = "AGENT_PLAN"
	AuditActionAgentClassified AuditAction = "AGENT_CLASSIFIED"
	AuditActionKBRetrieved     AuditAction = "KB_RETRIEVED"
	AuditActionDraftGenerated  AuditAction = "DRAFT_GENERATED"
	AuditActionDecisionMade    AuditAction = "DECISION_MADE"
	AuditActionAutoClosed      AuditAction = "AUTO_CLOSED"
	AuditActionAssignedToHuman AuditAction = "ASSIGNED_TO_HUMAN"
	AuditActionTriageFailed    AuditAction = "TRIAGE_FAILED"
)

// AuditActorSystem tags entries written by the triage pipeline itself.
const AuditActorSystem = "system"

// AuditLogEntry is an append-only record of one triage step. Entries from the
// same run share a trace id.
type AuditLogEntry struct {
	ID        string
	TraceID   string
	TicketID  string
	Actor     string
	Action    AuditAction
	Metadata  map[string]any
	CreatedAt time.Time
}
