package domain

import "time"

// OperationStatus is the lifecycle state of a persisted multi-step write.
type OperationStatus string

const (
	OperationPending     OperationStatus = "pending"
	OperationCommitted   OperationStatus = "committed"
	OperationCompensated OperationStatus = "compensated"
	OperationFailed      OperationStatus = "failed"
)

func (s OperationStatus) String() string { return string(s) }

// IsFinal reports whether no more work is expected for the operation.
func (s OperationStatus) IsFinal() bool { return s != OperationPending }

// Operation kinds recorded by the entry store.
const (
	OperationEntryCreate = "entry.create"
	OperationEntryDelete = "entry.delete"
)

// Operation is the log record of a saga. A record left pending means the
// process stopped mid-way and the saga must be recovered.
type Operation struct {
	ID        string            `json:"-"`
	Kind      string            `json:"kind"`
	Subject   string            `json:"subject"`
	Status    OperationStatus   `json:"status"`
	Steps     []string          `json:"steps"`
	Payload   map[string]string `json:"payload,omitempty"`
	Error     string            `json:"error,omitempty"`
	StartedAt time.Time         `json:"startedAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
