package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/chat"
	"github.com/sovushik/SparkyFitness/internal/secrets"
)

type ChatRepository interface {
	CreateProvider(ctx context.Context, p *chat.Provider) error
	ListProviders(ctx context.Context, userID uuid.UUID) ([]*chat.Provider, error)
	GetProvider(ctx context.Context, id uuid.UUID) (*chat.Provider, error)
	GetProviderOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	UpdateProvider(ctx context.Context, p *chat.Provider) error
	DeleteProvider(ctx context.Context, id uuid.UUID) error
	ActivateProvider(ctx context.Context, userID, id uuid.UUID) error
	GetActiveProvider(ctx context.Context, userID uuid.UUID) (*chat.Provider, error)
	InsertMessage(ctx context.Context, m *chat.Message) error
	RecentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]*chat.Message, error)
	ClearMessages(ctx context.Context, userID uuid.UUID) error
	ApplyRetention(ctx context.Context) (int64, error)
}

const defaultSystemPrompt = "You are Sparky, a friendly nutrition and fitness coach. " +
	"Give practical, encouraging advice about meals, macros, hydration and training. " +
	"Keep answers short and never give medical diagnoses."

const (
	historyTurns        = 10
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	providerTimeout     = 30 * time.Second
)

type ChatService struct {
	repo   ChatRepository
	users  UserRepository
	cipher *secrets.Cipher
	client *http.Client
}

func NewChatService(repo ChatRepository, users UserRepository, cipher *secrets.Cipher) *ChatService {
	return &ChatService{
		repo:   repo,
		users:  users,
		cipher: cipher,
		client: &http.Client{Timeout: providerTimeout},
	}
}

func validProviderType(t string) bool {
	return t == chat.ServiceOpenAI || t == chat.ServiceOpenAICompatible
}

func (s *ChatService) CreateProvider(ctx context.Context, userID uuid.UUID, req *chat.ProviderRequest) (*chat.Provider, error) {
	if strings.TrimSpace(req.ServiceName) == "" {
		return nil, errors.NotValidf("empty service name")
	}
	if strings.TrimSpace(req.BaseURL) == "" {
		return nil, errors.NotValidf("empty base url")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, errors.NotValidf("empty model")
	}
	if req.APIKey == "" {
		return nil, errors.NotValidf("empty api key")
	}

	serviceType := req.ServiceType
	if serviceType == "" {
		serviceType = chat.ServiceOpenAI
	}
	if !validProviderType(serviceType) {
		return nil, errors.NotValidf("service type %q", req.ServiceType)
	}

	sealed, err := s.cipher.Encrypt(req.APIKey)
	if err != nil {
		return nil, errors.Annotate(err, "sealing api key")
	}

	existing, err := s.repo.ListProviders(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	p := &chat.Provider{
		UserID:          userID,
		ServiceName:     strings.TrimSpace(req.ServiceName),
		ServiceType:     serviceType,
		APIKeyEncrypted: sealed,
		BaseURL:         strings.TrimRight(strings.TrimSpace(req.BaseURL), "/"),
		Model:           strings.TrimSpace(req.Model),
		// the first provider becomes active without an extra call
		IsActive: len(existing) == 0,
	}

	if err := s.repo.CreateProvider(ctx, p); err != nil {
		return nil, errors.Trace(err)
	}

	return p, nil
}

func (s *ChatService) ListProviders(ctx context.Context, userID uuid.UUID) ([]*chat.Provider, error) {
	providers, err := s.repo.ListProviders(ctx, userID)
	return providers, errors.Trace(err)
}

func (s *ChatService) checkProviderOwner(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetProviderOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner != userID {
		return errors.Forbiddenf("ai provider belongs to another user")
	}
	return nil
}

func (s *ChatService) UpdateProvider(ctx context.Context, userID, id uuid.UUID, req *chat.ProviderRequest) (*chat.Provider, error) {
	if err := s.checkProviderOwner(ctx, userID, id); err != nil {
		return nil, errors.Trace(err)
	}

	p, err := s.repo.GetProvider(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if name := strings.TrimSpace(req.ServiceName); name != "" {
		p.ServiceName = name
	}
	if req.ServiceType != "" {
		if !validProviderType(req.ServiceType) {
			return nil, errors.NotValidf("service type %q", req.ServiceType)
		}
		p.ServiceType = req.ServiceType
	}
	if u := strings.TrimSpace(req.BaseURL); u != "" {
		p.BaseURL = strings.TrimRight(u, "/")
	}
	if m := strings.TrimSpace(req.Model); m != "" {
		p.Model = m
	}
	if req.APIKey != "" {
		sealed, err := s.cipher.Encrypt(req.APIKey)
		if err != nil {
			return nil, errors.Annotate(err, "sealing api key")
		}
		p.APIKeyEncrypted = sealed
	}

	if err := s.repo.UpdateProvider(ctx, p); err != nil {
		return nil, errors.Trace(err)
	}

	return p, nil
}

func (s *ChatService) DeleteProvider(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkProviderOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.DeleteProvider(ctx, id))
}

func (s *ChatService) SetActiveProvider(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkProviderOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.ActivateProvider(ctx, userID, id))
}

// OpenAI-compatible wire format.
type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// SendMessage forwards the user's message plus recent history to the
// active provider and stores both sides of the exchange. The user row is
// written before the provider call so a failed completion still shows the
// question in history.
func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, message string) (*chat.Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.NotValidf("empty message")
	}

	provider, err := s.repo.GetActiveProvider(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	apiKey, err := s.cipher.Decrypt(provider.APIKeyEncrypted)
	if err != nil {
		return nil, errors.Annotate(err, "opening provider api key")
	}

	history, err := s.repo.RecentMessages(ctx, userID, historyTurns)
	if err != nil {
		return nil, errors.Trace(err)
	}

	systemPrompt := defaultSystemPrompt
	if prefs, err := s.users.GetPreferences(ctx, userID); err == nil && strings.TrimSpace(prefs.SystemPrompt) != "" {
		systemPrompt = prefs.SystemPrompt
	}

	messages := make([]completionMessage, 0, len(history)+2)
	messages = append(messages, completionMessage{Role: chat.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		messages = append(messages, completionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, completionMessage{Role: chat.RoleUser, Content: message})

	userMsg := &chat.Message{UserID: userID, Role: chat.RoleUser, Content: message}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return nil, errors.Trace(err)
	}

	reply, err := s.complete(ctx, provider, apiKey, messages)
	if err != nil {
		return nil, errors.Trace(err)
	}

	assistantMsg := &chat.Message{UserID: userID, Role: chat.RoleAssistant, Content: reply}
	if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
		return nil, errors.Trace(err)
	}

	return assistantMsg, nil
}

func (s *ChatService) complete(ctx context.Context, provider *chat.Provider, apiKey string, messages []completionMessage) (string, error) {
	body, err := json.Marshal(completionRequest{Model: provider.Model, Messages: messages})
	if err != nil {
		return "", errors.Trace(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		provider.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Annotate(err, "building provider request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Annotate(err, "calling ai provider")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Annotate(err, "reading provider response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("ai provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Annotate(err, "decoding provider response")
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", errors.Errorf("ai provider returned no completion")
	}

	return parsed.Choices[0].Message.Content, nil
}

func (s *ChatService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	messages, err := s.repo.RecentMessages(ctx, userID, limit)
	return messages, errors.Trace(err)
}

func (s *ChatService) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	return errors.Trace(s.repo.ClearMessages(ctx, userID))
}
