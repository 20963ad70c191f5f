package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"ai-companion-demo/backend/ai"
	"ai-companion-demo/backend/internal/models"
	"ai-companion-demo/backend/internal/service"
	"ai-companion-demo/backend/pkg/cache"
	"ai-companion-demo/backend/pkg/errors"
	"ai-companion-demo/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// In-memory repository doubles shared by the handler tests.

type stubCharacterRepo struct {
	characters map[string]models.Character
	order      []string
	messages   *stubMessageRepo
}

func newStubCharacterRepo(messages *stubMessageRepo) *stubCharacterRepo {
	return &stubCharacterRepo{characters: make(map[string]models.Character), messages: messages}
}

func (r *stubCharacterRepo) Create(character *models.Character) error {
	if character.CreatedAt == 0 {
		character.CreatedAt = time.Now().Unix()
	}
	r.characters[character.ID] = *character
	r.order = append(r.order, character.ID)
	return nil
}

func (r *stubCharacterRepo) GetByID(id string) (*models.Character, error) {
	character, ok := r.characters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := character
	return &clone, nil
}

func (r *stubCharacterRepo) GetAll() ([]models.Character, error) {
	result := make([]models.Character, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.characters[id])
	}
	return result, nil
}

func (r *stubCharacterRepo) Update(character *models.Character) error {
	r.characters[character.ID] = *character
	return nil
}

func (r *stubCharacterRepo) Delete(id string) error {
	delete(r.characters, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return r.messages.ClearByCharacter(id)
}

func (r *stubCharacterRepo) Count() (int64, error) {
	return int64(len(r.characters)), nil
}

type stubMessageRepo struct {
	msgs []models.Message
}

func (r *stubMessageRepo) Create(message *models.Message) error {
	r.msgs = append(r.msgs, *message)
	return nil
}

func (r *stubMessageRepo) Delete(id string) error {
	for i, msg := range r.msgs {
		if msg.ID == id {
			r.msgs = append(r.msgs[:i], r.msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubMessageRepo) ListByCharacter(characterID string) ([]models.Message, error) {
	result := []models.Message{}
	for _, msg := range r.msgs {
		if msg.CharacterID == characterID {
			result = append(result, msg)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Timestamp < result[j].Timestamp })
	return result, nil
}

func (r *stubMessageRepo) ListRecent(characterID string, limit int) ([]models.Message, error) {
	all, err := r.ListByCharacter(characterID)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *stubMessageRepo) ClearByCharacter(characterID string) error {
	var kept []models.Message
	for _, msg := range r.msgs {
		if msg.CharacterID != characterID {
			kept = append(kept, msg)
		}
	}
	r.msgs = kept
	return nil
}

type stubProvider struct {
	reply string
	err   error
}

func (p *stubProvider) Complete(context.Context, string, []ai.Turn, string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *stubProvider) Name() string { return "stub" }

type stubSynth struct {
	audio []byte
	err   error
}

func (s *stubSynth) Synthesize(context.Context, string, string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

// testApp wires the real services behind the handlers with in-memory doubles
// underneath, mirroring the production route layout under /api.
type testApp struct {
	engine     *gin.Engine
	characters *service.CharacterService
}

func newTestApp(t *testing.T, provider ai.ChatProvider, synth ai.SpeechSynthesizer) *testApp {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})

	messages := &stubMessageRepo{}
	characters := newStubCharacterRepo(messages)

	characterService := service.NewCharacterService(characters)
	chatService := service.NewChatService(characters, messages, provider, service.DefaultHistoryLimit, nil, log)
	speechService := service.NewSpeechService(synth, cache.NewMemory(time.Minute, 0, 16), nil, log)

	engine := gin.New()
	engine.Use(errors.ErrorHandler())

	group := engine.Group("/api")
	NewCharacterHandler(characterService).RegisterRoutes(group)
	NewMessageHandler(chatService).RegisterRoutes(group)
	NewSpeechHandler(speechService).RegisterRoutes(group)

	return &testApp{engine: engine, characters: characterService}
}

func (a *testApp) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

// errorCode extracts the code from the error envelope.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeJSON(t, w, &payload)
	return payload.Error.Code
}

func (a *testApp) createCharacter(t *testing.T, name string) models.Character {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/characters", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Character
	decodeJSON(t, w, &created)
	return created
}
