package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"ai-companion-demo/backend/ai"
	"ai-companion-demo/backend/internal/models"
	apperrors "ai-companion-demo/backend/pkg/errors"
	"ai-companion-demo/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeCharacterRepo is an in-memory CharacterRepository.
type fakeCharacterRepo struct {
	characters map[string]models.Character
	order      []string
	messages   *fakeMessageRepo
	createErr  error
}

func newFakeCharacterRepo(messages *fakeMessageRepo) *fakeCharacterRepo {
	return &fakeCharacterRepo{
		characters: make(map[string]models.Character),
		messages:   messages,
	}
}

func (r *fakeCharacterRepo) Create(character *models.Character) error {
	if r.createErr != nil {
		return r.createErr
	}
	if character.CreatedAt == 0 {
		character.CreatedAt = time.Now().Unix()
	}
	r.characters[character.ID] = *character
	r.order = append(r.order, character.ID)
	return nil
}

func (r *fakeCharacterRepo) GetByID(id string) (*models.Character, error) {
	character, ok := r.characters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := character
	return &clone, nil
}

func (r *fakeCharacterRepo) GetAll() ([]models.Character, error) {
	result := make([]models.Character, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.characters[id])
	}
	return result, nil
}

func (r *fakeCharacterRepo) Update(character *models.Character) error {
	r.characters[character.ID] = *character
	return nil
}

func (r *fakeCharacterRepo) Delete(id string) error {
	delete(r.characters, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.messages != nil {
		return r.messages.ClearByCharacter(id)
	}
	return nil
}

func (r *fakeCharacterRepo) Count() (int64, error) {
	return int64(len(r.characters)), nil
}

// fakeMessageRepo is an in-memory MessageRepository.
type fakeMessageRepo struct {
	msgs      []models.Message
	createErr error
}

func (r *fakeMessageRepo) Create(message *models.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.msgs = append(r.msgs, *message)
	return nil
}

func (r *fakeMessageRepo) Delete(id string) error {
	for i, msg := range r.msgs {
		if msg.ID == id {
			r.msgs = append(r.msgs[:i], r.msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeMessageRepo) ListByCharacter(characterID string) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range r.msgs {
		if msg.CharacterID == characterID {
			result = append(result, msg)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Timestamp < result[j].Timestamp })
	if result == nil {
		result = []models.Message{}
	}
	return result, nil
}

func (r *fakeMessageRepo) ListRecent(characterID string, limit int) ([]models.Message, error) {
	all, err := r.ListByCharacter(characterID)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *fakeMessageRepo) ClearByCharacter(characterID string) error {
	var kept []models.Message
	for _, msg := range r.msgs {
		if msg.CharacterID != characterID {
			kept = append(kept, msg)
		}
	}
	r.msgs = kept
	return nil
}

// fakeProvider records the prompt it was handed and returns a canned reply.
type fakeProvider struct {
	reply       string
	err         error
	calls       int
	lastSystem  string
	lastHistory []ai.Turn
	lastUser    string
}

func (p *fakeProvider) Complete(_ context.Context, systemPrompt string, history []ai.Turn, userText string) (string, error) {
	p.calls++
	p.lastSystem = systemPrompt
	p.lastHistory = history
	p.lastUser = userText
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: false, Output: io.Discard})
}

func newChatFixture(t *testing.T, provider *fakeProvider) (*ChatService, *fakeCharacterRepo, *fakeMessageRepo) {
	t.Helper()
	messages := &fakeMessageRepo{}
	characters := newFakeCharacterRepo(messages)
	svc := NewChatService(characters, messages, provider, DefaultHistoryLimit, nil, testLogger())
	return svc, characters, messages
}

func seedCharacter(t *testing.T, repo *fakeCharacterRepo, name, personality string) *models.Character {
	t.Helper()
	character := &models.Character{
		ID:          "char-1",
		Name:        name,
		Personality: personality,
		Intro:       models.DefaultIntro(name),
	}
	require.NoError(t, repo.Create(character))
	return character
}

func TestSubmitTurnSuccess(t *testing.T) {
	provider := &fakeProvider{reply: "你好呀！"}
	svc, characters, messages := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	reply, err := svc.SubmitTurn(context.Background(), "char-1", "你好")
	require.NoError(t, err)
	require.NotNil(t, reply)

	assert.Equal(t, "你好呀！", reply.Text)
	assert.False(t, reply.IsUser)
	assert.NotEmpty(t, reply.ID)

	log, err := svc.ListMessages("char-1")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.True(t, log[0].IsUser)
	assert.Equal(t, "你好", log[0].Text)
	assert.False(t, log[1].IsUser)
	assert.Equal(t, "你好呀！", log[1].Text)
	assert.LessOrEqual(t, log[0].Timestamp, log[1].Timestamp)
	assert.Equal(t, 2, len(messages.msgs))
}

func TestSubmitTurnBuildsPersonaPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "在呢"}
	svc, characters, _ := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	_, err := svc.SubmitTurn(context.Background(), "char-1", "在吗")
	require.NoError(t, err)

	assert.Contains(t, provider.lastSystem, "阳光伙伴")
	assert.Contains(t, provider.lastSystem, "温暖型")
	assert.Contains(t, provider.lastSystem, "请用中文回复")
	assert.Equal(t, "在吗", provider.lastUser)
}

func TestSubmitTurnTrimsUserText(t *testing.T) {
	provider := &fakeProvider{reply: "收到"}
	svc, characters, _ := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	_, err := svc.SubmitTurn(context.Background(), "char-1", "  你好  ")
	require.NoError(t, err)

	log, _ := svc.ListMessages("char-1")
	assert.Equal(t, "你好", log[0].Text)
	assert.Equal(t, "你好", provider.lastUser)
}

func TestSubmitTurnProviderFailureRollsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream timeout")}
	svc, characters, _ := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	_, err := svc.SubmitTurn(context.Background(), "char-1", "你好")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PROVIDER_FAILED", appErr.Code)
	assert.Equal(t, 502, appErr.StatusCode)

	// The user message must not survive a failed turn.
	log, listErr := svc.ListMessages("char-1")
	require.NoError(t, listErr)
	assert.Empty(t, log)
}

func TestSubmitTurnEmptyCompletionRollsBack(t *testing.T) {
	provider := &fakeProvider{err: ai.ErrEmptyCompletion}
	svc, characters, _ := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	_, err := svc.SubmitTurn(context.Background(), "char-1", "你好")
	require.Error(t, err)

	log, _ := svc.ListMessages("char-1")
	assert.Empty(t, log)
}

func TestSubmitTurnValidation(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		provider := &fakeProvider{reply: "ignored"}
		svc, characters, messages := newChatFixture(t, provider)
		seedCharacter(t, characters, "阳光伙伴", "温暖型")

		_, err := svc.SubmitTurn(context.Background(), "char-1", text)
		require.Error(t, err, "text %q", text)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "EMPTY_MESSAGE", appErr.Code)
		assert.Equal(t, 400, appErr.StatusCode)
		assert.Zero(t, provider.calls)
		assert.Empty(t, messages.msgs)
	}
}

func TestSubmitTurnUnknownCharacter(t *testing.T) {
	provider := &fakeProvider{reply: "ignored"}
	svc, _, messages := newChatFixture(t, provider)

	_, err := svc.SubmitTurn(context.Background(), "missing", "你好")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CHARACTER_NOT_FOUND", appErr.Code)
	assert.Equal(t, 404, appErr.StatusCode)
	assert.Zero(t, provider.calls)
	assert.Empty(t, messages.msgs)
}

func TestSubmitTurnBoundsHistory(t *testing.T) {
	provider := &fakeProvider{reply: "好的"}
	messages := &fakeMessageRepo{}
	characters := newFakeCharacterRepo(messages)
	svc := NewChatService(characters, messages, provider, 20, nil, testLogger())
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	base := time.Now().UnixMilli() - 10_000
	for i := 0; i < 30; i++ {
		require.NoError(t, messages.Create(&models.Message{
			ID:          fmt.Sprintf("m-%d", i),
			CharacterID: "char-1",
			Text:        fmt.Sprintf("消息%d", i),
			IsUser:      i%2 == 0,
			Timestamp:   base + int64(i),
		}))
	}

	_, err := svc.SubmitTurn(context.Background(), "char-1", "新消息")
	require.NoError(t, err)

	// The window covers the 20 most recent rows; the just-written user
	// message is excluded, leaving 19 prior turns.
	require.Len(t, provider.lastHistory, 19)
	assert.Equal(t, "消息11", provider.lastHistory[0].Content)
	assert.Equal(t, "消息29", provider.lastHistory[18].Content)

	// Roles follow the stored author flags.
	for i, turn := range provider.lastHistory {
		want := ai.RoleAssistant
		if (i+11)%2 == 0 {
			want = ai.RoleUser
		}
		assert.Equal(t, want, turn.Role, "turn %d", i)
	}
}

func TestSubmitTurnHistoryExcludesCurrentMessage(t *testing.T) {
	provider := &fakeProvider{reply: "好的"}
	svc, characters, _ := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	_, err := svc.SubmitTurn(context.Background(), "char-1", "第一句")
	require.NoError(t, err)
	assert.Empty(t, provider.lastHistory)

	_, err = svc.SubmitTurn(context.Background(), "char-1", "第二句")
	require.NoError(t, err)

	require.Len(t, provider.lastHistory, 2)
	assert.Equal(t, ai.Turn{Role: ai.RoleUser, Content: "第一句"}, provider.lastHistory[0])
	assert.Equal(t, ai.Turn{Role: ai.RoleAssistant, Content: "好的"}, provider.lastHistory[1])
	for _, turn := range provider.lastHistory {
		assert.NotEqual(t, "第二句", turn.Content)
	}
}

func TestClearMessages(t *testing.T) {
	provider := &fakeProvider{reply: "你好呀！"}
	svc, characters, _ := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	_, err := svc.SubmitTurn(context.Background(), "char-1", "你好")
	require.NoError(t, err)

	require.NoError(t, svc.ClearMessages("char-1"))

	log, err := svc.ListMessages("char-1")
	require.NoError(t, err)
	assert.Empty(t, log)

	// The character itself is untouched.
	_, err = characters.GetByID("char-1")
	assert.NoError(t, err)
}

func TestListMessagesOrdering(t *testing.T) {
	provider := &fakeProvider{reply: "好"}
	svc, characters, messages := newChatFixture(t, provider)
	seedCharacter(t, characters, "阳光伙伴", "温暖型")

	now := time.Now().UnixMilli()
	for i, text := range []string{"一", "二", "三"} {
		require.NoError(t, messages.Create(&models.Message{
			ID:          fmt.Sprintf("id-%d", i),
			CharacterID: "char-1",
			Text:        text,
			Timestamp:   now + int64(i),
		}))
	}

	log, err := svc.ListMessages("char-1")
	require.NoError(t, err)

	var texts []string
	for _, msg := range log {
		texts = append(texts, msg.Text)
	}
	assert.Equal(t, "一 二 三", strings.Join(texts, " "))
}
