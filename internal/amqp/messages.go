package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncAction says what the export worker should do with an installment.
type SyncAction string

const (
	ActionUpsert SyncAction = "upsert"
	ActionDelete SyncAction = "delete"
)

// InstallmentSyncMessage carries only the installment ID; the worker loads
// the current record from storage before exporting it.
type InstallmentSyncMessage struct {
	ID        string     `json:"id"`
	Action    SyncAction `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewInstallmentSyncMessage(id string, action SyncAction) *InstallmentSyncMessage {
	return &InstallmentSyncMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *InstallmentSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InstallmentSyncMessageFromJSON decodes and validates a message body.
func InstallmentSyncMessageFromJSON(data []byte) (*InstallmentSyncMessage, error) {
	var msg InstallmentSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("sync message without id")
	}
	switch msg.Action {
	case ActionUpsert, ActionDelete:
	case "":
		msg.Action = ActionUpsert
	default:
		return nil, fmt.Errorf("unknown sync action %q", msg.Action)
	}
	return &msg, nil
}
