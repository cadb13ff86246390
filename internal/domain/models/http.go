package models

// Requests and responses of the HTTP API.

type DashboardRequest struct {
	Tab string `query:"tab" json:"tab" default:"ALL" validate:"oneof=CONSULTANT BRAIN PORTFOLIO ALL"`
}

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type WatchlistRequest struct {
	Reload  bool   `query:"reload" json:"reload"`
	Symbols string `query:"symbols" json:"symbols" validate:"max=256,symbols"`
}

type APIKeyRequest struct {
	Key string `json:"key" validate:"required,min=8"`
}

// APIKeyStatus never carries the key itself.
type APIKeyStatus struct {
	Configured      bool   `json:"configured"`
	Mode            string `json:"mode"`
	RestartRequired bool   `json:"restart_required,omitempty"`
	// Persisted is false when the key lives only in process memory.
	Persisted       bool   `json:"persisted"`
}

// Health is the liveness payload.
type Health struct {
	Status    string `json:"status"`
	QuoteMode string `json:"quote_mode"`
	Source    string `json:"source"`
	Revision  uint64 `json:"revision"`
	Archive   string `json:"archive"`
}
