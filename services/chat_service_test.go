package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovushik/SparkyFitness/internal/chat"
	"github.com/sovushik/SparkyFitness/internal/secrets"
	"github.com/sovushik/SparkyFitness/internal/user"
)

type fakeChatRepo struct {
	providers map[uuid.UUID]*chat.Provider
	messages  []*chat.Message
	lastLimit int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{providers: make(map[uuid.UUID]*chat.Provider)}
}

func (f *fakeChatRepo) CreateProvider(ctx context.Context, p *chat.Provider) error {
	p.ID = uuid.New()
	f.providers[p.ID] = p
	return nil
}

func (f *fakeChatRepo) ListProviders(ctx context.Context, userID uuid.UUID) ([]*chat.Provider, error) {
	var out []*chat.Provider
	for _, p := range f.providers {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) GetProvider(ctx context.Context, id uuid.UUID) (*chat.Provider, error) {
	p, ok := f.providers[id]
	if !ok {
		return nil, errors.NotFoundf("ai provider")
	}
	return p, nil
}

func (f *fakeChatRepo) GetProviderOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	p, ok := f.providers[id]
	if !ok {
		return uuid.Nil, errors.NotFoundf("ai provider")
	}
	return p.UserID, nil
}

func (f *fakeChatRepo) UpdateProvider(ctx context.Context, p *chat.Provider) error {
	f.providers[p.ID] = p
	return nil
}

func (f *fakeChatRepo) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	delete(f.providers, id)
	return nil
}

func (f *fakeChatRepo) ActivateProvider(ctx context.Context, userID, id uuid.UUID) error {
	for _, p := range f.providers {
		if p.UserID == userID {
			p.IsActive = p.ID == id
		}
	}
	return nil
}

func (f *fakeChatRepo) GetActiveProvider(ctx context.Context, userID uuid.UUID) (*chat.Provider, error) {
	for _, p := range f.providers {
		if p.UserID == userID && p.IsActive {
			return p, nil
		}
	}
	return nil, errors.NotFoundf("active ai provider")
}

func (f *fakeChatRepo) InsertMessage(ctx context.Context, m *chat.Message) error {
	m.ID = uuid.New()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeChatRepo) RecentMessages(ctx context.Context, userID uuid.UUID, limit int) ([]*chat.Message, error) {
	f.lastLimit = limit
	var out []*chat.Message
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeChatRepo) ClearMessages(ctx context.Context, userID uuid.UUID) error {
	kept := f.messages[:0]
	for _, m := range f.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

func (f *fakeChatRepo) ApplyRetention(ctx context.Context) (int64, error) {
	return 0, nil
}

func testCipher(t *testing.T) *secrets.Cipher {
	t.Helper()
	cipher, err := secrets.NewCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)
	return cipher
}

// fakeProviderServer stands in for an OpenAI-compatible endpoint and
// records what the service sent it.
func fakeProviderServer(t *testing.T, reply string) (*httptest.Server, *[]completionRequest) {
	t.Helper()
	var seen []completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-unit-test", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": chat.RoleAssistant, "content": reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func addActiveProvider(t *testing.T, svc *ChatService, userID uuid.UUID, baseURL string) *chat.Provider {
	t.Helper()
	p, err := svc.CreateProvider(context.Background(), userID, &chat.ProviderRequest{
		ServiceName: "unit",
		ServiceType: chat.ServiceOpenAICompatible,
		APIKey:      "sk-unit-test",
		BaseURL:     baseURL,
		Model:       "gpt-4o-mini",
	})
	require.NoError(t, err)
	return p
}

func TestSendMessageRoundTrip(t *testing.T) {
	srv, seen := fakeProviderServer(t, "Try a banana with peanut butter.")
	repo := newFakeChatRepo()
	svc := NewChatService(repo, newFakeUserRepo(), testCipher(t))
	userID := uuid.New()
	addActiveProvider(t, svc, userID, srv.URL)

	reply, err := svc.SendMessage(context.Background(), userID, "What should I eat after a run?")

	require.NoError(t, err)
	assert.Equal(t, chat.RoleAssistant, reply.Role)
	assert.Equal(t, "Try a banana with peanut butter.", reply.Content)

	require.Len(t, *seen, 1)
	sent := (*seen)[0]
	assert.Equal(t, "gpt-4o-mini", sent.Model)
	require.GreaterOrEqual(t, len(sent.Messages), 2)
	assert.Equal(t, chat.RoleSystem, sent.Messages[0].Role)
	assert.Equal(t, "What should I eat after a run?", sent.Messages[len(sent.Messages)-1].Content)

	require.Len(t, repo.messages, 2)
	assert.Equal(t, chat.RoleUser, repo.messages[0].Role)
	assert.Equal(t, chat.RoleAssistant, repo.messages[1].Role)
}

func TestSendMessageCarriesHistory(t *testing.T) {
	srv, seen := fakeProviderServer(t, "Roughly 30 grams.")
	repo := newFakeChatRepo()
	svc := NewChatService(repo, newFakeUserRepo(), testCipher(t))
	userID := uuid.New()
	addActiveProvider(t, svc, userID, srv.URL)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, userID, "How much protein per meal?")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, userID, "And after training?")
	require.NoError(t, err)

	require.Len(t, *seen, 2)
	second := (*seen)[1]
	// system prompt, two stored turns, then the new question
	require.Len(t, second.Messages, 4)
	assert.Equal(t, "How much protein per meal?", second.Messages[1].Content)
	assert.Equal(t, "Roughly 30 grams.", second.Messages[2].Content)
	assert.Equal(t, "And after training?", second.Messages[3].Content)
}

func TestSendMessageUsesCustomSystemPrompt(t *testing.T) {
	srv, seen := fakeProviderServer(t, "Arr, eat yer greens.")
	repo := newFakeChatRepo()
	users := newFakeUserRepo()
	svc := NewChatService(repo, users, testCipher(t))
	userID := uuid.New()
	users.prefs[userID] = &user.Preferences{UserID: userID, SystemPrompt: "Answer like a pirate."}
	addActiveProvider(t, svc, userID, srv.URL)

	_, err := svc.SendMessage(context.Background(), userID, "Dinner ideas?")

	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, "Answer like a pirate.", (*seen)[0].Messages[0].Content)
}

func TestSendMessageKeepsQuestionWhenProviderFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream on fire", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	repo := newFakeChatRepo()
	svc := NewChatService(repo, newFakeUserRepo(), testCipher(t))
	userID := uuid.New()
	addActiveProvider(t, svc, userID, srv.URL)

	_, err := svc.SendMessage(context.Background(), userID, "Hello?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	require.Len(t, repo.messages, 1, "the question stays in history even when the completion fails")
	assert.Equal(t, chat.RoleUser, repo.messages[0].Role)
}

func TestSendMessageWithoutProvider(t *testing.T) {
	svc := NewChatService(newFakeChatRepo(), newFakeUserRepo(), testCipher(t))

	_, err := svc.SendMessage(context.Background(), uuid.New(), "Hello?")

	assert.True(t, errors.IsNotFound(err))
}

func TestSendMessageRejectsEmpty(t *testing.T) {
	svc := NewChatService(newFakeChatRepo(), newFakeUserRepo(), testCipher(t))

	_, err := svc.SendMessage(context.Background(), uuid.New(), "   ")

	assert.True(t, errors.IsNotValid(err))
}

func TestCreateProviderSealsAPIKey(t *testing.T) {
	repo := newFakeChatRepo()
	cipher := testCipher(t)
	svc := NewChatService(repo, newFakeUserRepo(), cipher)
	userID := uuid.New()

	first, err := svc.CreateProvider(context.Background(), userID, &chat.ProviderRequest{
		ServiceName: "openai",
		APIKey:      "sk-secret",
		BaseURL:     "https://api.openai.com/v1/",
		Model:       "gpt-4o",
	})

	require.NoError(t, err)
	assert.NotEqual(t, "sk-secret", first.APIKeyEncrypted)
	opened, err := cipher.Decrypt(first.APIKeyEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", opened)
	assert.Equal(t, "https://api.openai.com/v1", first.BaseURL, "trailing slash is stripped")
	assert.True(t, first.IsActive, "the first provider becomes active")

	second, err := svc.CreateProvider(context.Background(), userID, &chat.ProviderRequest{
		ServiceName: "local",
		ServiceType: chat.ServiceOpenAICompatible,
		APIKey:      "sk-other",
		BaseURL:     "http://localhost:11434/v1",
		Model:       "llama3",
	})
	require.NoError(t, err)
	assert.False(t, second.IsActive)
}

func TestCreateProviderValidation(t *testing.T) {
	svc := NewChatService(newFakeChatRepo(), newFakeUserRepo(), testCipher(t))
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.CreateProvider(ctx, userID, &chat.ProviderRequest{
		ServiceName: "openai", APIKey: "sk-x", BaseURL: "https://api.openai.com/v1",
	})
	assert.True(t, errors.IsNotValid(err), "a model is required")

	_, err = svc.CreateProvider(ctx, userID, &chat.ProviderRequest{
		ServiceName: "openai", ServiceType: "gemini", APIKey: "sk-x",
		BaseURL: "https://api.openai.com/v1", Model: "gpt-4o",
	})
	assert.True(t, errors.IsNotValid(err), "unknown service types are rejected")
}

func TestProviderOwnershipGate(t *testing.T) {
	repo := newFakeChatRepo()
	svc := NewChatService(repo, newFakeUserRepo(), testCipher(t))
	owner := uuid.New()
	p := addActiveProvider(t, svc, owner, "http://localhost:11434/v1")

	err := svc.DeleteProvider(context.Background(), uuid.New(), p.ID)
	assert.True(t, errors.IsForbidden(err))
	assert.Len(t, repo.providers, 1)

	err = svc.DeleteProvider(context.Background(), owner, uuid.New())
	assert.True(t, errors.IsNotFound(err))
}

func TestHistoryClampsLimit(t *testing.T) {
	repo := newFakeChatRepo()
	svc := NewChatService(repo, newFakeUserRepo(), testCipher(t))
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.History(ctx, userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)

	_, err = svc.History(ctx, userID, 1000)
	require.NoError(t, err)
	assert.Equal(t, 200, repo.lastLimit)
}
