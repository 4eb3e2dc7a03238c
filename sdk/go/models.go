package tokengate

// Token mirrors the server's token representation.
type Token struct {
	Value             string `json:"value"`
	Status            string `json:"status"`
	CreatedAt         int64  `json:"createdAt"`
	ExpiresAt         *int64 `json:"expiresAt"`
	UsedAt            *int64 `json:"usedAt,omitempty"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
	SessionID         string `json:"sessionId,omitempty"`
	LastActivity      *int64 `json:"lastActivity,omitempty"`
}

// ActivateResult is the outcome of an activation attempt.
type ActivateResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}

// ImportResult reports the outcome of a backup import.
type ImportResult struct {
	Imported int    `json:"imported"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}
