package types

import "time"

type ScanAction string

const (
	ActionCheckIn       ScanAction = "check-in"
	ActionCheckOut      ScanAction = "check-out"
	ActionNotApplicable ScanAction = "not-applicable"
)

type ScanOutcome string

const (
	OutcomeSuccess   ScanOutcome = "success"
	OutcomeExpired   ScanOutcome = "expired"
	OutcomeInvalid   ScanOutcome = "invalid"
	OutcomeConflict  ScanOutcome = "conflict"
	OutcomeDuplicate ScanOutcome = "duplicate"
)

// ScanLogEntry is an immutable audit record of one processed scan attempt.
// MemberName is denormalized at write time on purpose: the audit trail shows
// the name as it was at the time of the event, even if the member is later
// renamed. Action "not-applicable" pairs only with status "expired" or
// "invalid"; "check-in"/"check-out" pair only with "success".
type ScanLogEntry struct {
	ID         int64       `json:"id"`
	MemberID   string      `json:"member_id"`
	MemberName string      `json:"member_name"`
	ScannedAt  time.Time   `json:"scanned_at"`
	Action     ScanAction  `json:"action"`
	Status     ScanOutcome `json:"status"`
}

// ScanRequest is one scan event from a kiosk: the QR payload is a bare member
// identifier, never a capability token — all validity is looked up server-side.
type ScanRequest struct {
	Code    string `json:"code"`
	KioskID string `json:"kiosk_id,omitempty"`
}

// Decision is the outcome of one access attempt, suitable for full-screen
// kiosk display. Expired, invalid, and conflict outcomes are normal results,
// not errors.
type Decision struct {
	Granted    bool          `json:"granted"`
	Action     ScanAction    `json:"action"`
	Outcome    ScanOutcome   `json:"outcome"`
	Message    string        `json:"message"`
	MemberID   string        `json:"member_id,omitempty"`
	MemberName string        `json:"member_name,omitempty"`
	ServerTime string        `json:"server_time"`
	LogEntry   *ScanLogEntry `json:"log_entry,omitempty"`
}
