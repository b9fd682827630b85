// Package audit records what happened to verification transactions. Events
// flow from services through a buffered Publisher to a Worker and its Sink.
package audit

import "time"

// Action names what happened to a verification transaction or the admin surface.
type Action string

const (
	ActionTransactionCreated   Action = "transaction.created"
	ActionTransactionRequested Action = "transaction.requested"
	ActionTransactionResponded Action = "transaction.responded"
	ActionTransactionRejected  Action = "transaction.rejected"
	ActionResultRedeemed       Action = "result.redeemed"
	ActionResultRejected       Action = "result.rejected"
	ActionDefinitionGenerated  Action = "definition.generated"
	ActionDeviceRegistered     Action = "device.registered"
	ActionDeviceDeauthorized   Action = "device.deauthorized"
)

// Event is emitted from domain logic to capture key actions. It never carries
// disclosed credential values or response codes.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Action        Action    `json:"action"`
	TransactionID string    `json:"transaction_id,omitempty"`
	DeviceID      string    `json:"device_id,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	Outcome       string    `json:"outcome,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
