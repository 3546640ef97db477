package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	ServiceOpenAI           = "openai"
	ServiceOpenAICompatible = "openai_compatible"
)

// Provider is a stored AI service configuration. APIKeyEncrypted holds the
// AES-GCM sealed key; the plaintext never leaves the service layer.
type Provider struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	ServiceName     string    `json:"service_name" db:"service_name"`
	ServiceType     string    `json:"service_type" db:"service_type"`
	APIKeyEncrypted string    `json:"-" db:"api_key_encrypted"`
	BaseURL         string    `json:"base_url" db:"base_url"`
	Model           string    `json:"model" db:"model"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ProviderRequest struct {
	ServiceName string `json:"service_name"`
	ServiceType string `json:"service_type"`
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	Model       string `json:"model"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type SendMessageResponse struct {
	Reply string `json:"reply"`
}
