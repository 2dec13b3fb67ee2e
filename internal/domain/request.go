package domain

import "time"

// AgentInvokeRequest is the body sent to the agent invocation endpoint.
// SessionID is null until a session has been created.
type AgentInvokeRequest struct {
	Input           string  `json:"input"`
	EnableStreaming bool    `json:"enableStreaming"`
	SessionID       *string `json:"sessionId"`
}

// UploadRequest asks the relay to copy a connector file into object storage.
type UploadRequest struct {
	UserID   string `json:"userId"`
	FileID   string `json:"fileId"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"`
}

// UploadResponse carries the public URL of the relayed object.
type UploadResponse struct {
	PublicURL string `json:"publicUrl"`
}

// RelayRecord is a ledger row written after a successful relay.
type RelayRecord struct {
	RelayID   string    `json:"relay_id"`
	UserID    string    `json:"user_id"`
	FileID    string    `json:"file_id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
