package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-companion-demo/backend/ai"
	"ai-companion-demo/backend/internal/models"
	"ai-companion-demo/backend/internal/repository"
	apperrors "ai-companion-demo/backend/pkg/errors"
	"ai-companion-demo/backend/pkg/logger"
	"ai-companion-demo/backend/pkg/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultHistoryLimit bounds the conversation context sent to the provider.
const DefaultHistoryLimit = 20

// ChatService executes conversation turns and manages the message log. It
// keeps the persisted transcript consistent with the outcome of the provider
// call: a failed turn never leaves an unanswered user message behind.
type ChatService struct {
	characters   repository.CharacterRepository
	messages     repository.MessageRepository
	provider     ai.ChatProvider
	historyLimit int
	metrics      *observability.Metrics
	log          *logger.Logger
}

func NewChatService(
	characters repository.CharacterRepository,
	messages repository.MessageRepository,
	provider ai.ChatProvider,
	historyLimit int,
	metrics *observability.Metrics,
	log *logger.Logger,
) *ChatService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ChatService{
		characters:   characters,
		messages:     messages,
		provider:     provider,
		historyLimit: historyLimit,
		metrics:      metrics,
		log:          log,
	}
}

// SubmitTurn runs one request/response cycle: persist the user message, ask
// the provider for a reply with bounded history as context, persist the reply.
// If the provider fails or answers with nothing, the user message is deleted
// again so the transcript holds no orphaned turn.
func (s *ChatService) SubmitTurn(ctx context.Context, characterID, text string) (*models.Message, error) {
	providerName := s.provider.Name()

	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.RecordTurn(ctx, providerName, observability.OutcomeValidationError)
		return nil, apperrors.NewBadRequestError("EMPTY_MESSAGE", "消息内容不能为空")
	}

	character, err := s.characters.GetByID(characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.RecordTurn(ctx, providerName, observability.OutcomeNotFound)
			return nil, apperrors.NewNotFoundError("CHARACTER_NOT_FOUND", "角色不存在")
		}
		s.metrics.RecordTurn(ctx, providerName, observability.OutcomeStoreError)
		return nil, err
	}

	userMessage := &models.Message{
		ID:          uuid.NewString(),
		CharacterID: characterID,
		Text:        text,
		IsUser:      true,
		Timestamp:   time.Now().UnixMilli(),
	}
	if err := s.messages.Create(userMessage); err != nil {
		s.metrics.RecordTurn(ctx, providerName, observability.OutcomeStoreError)
		return nil, err
	}

	history, err := s.priorHistory(characterID, userMessage.ID)
	if err != nil {
		s.rollback(userMessage.ID)
		s.metrics.RecordTurn(ctx, providerName, observability.OutcomeStoreError)
		return nil, err
	}

	systemPrompt := ai.BuildSystemPrompt(character.Name, character.Personality, character.Intro)

	reply, err := s.provider.Complete(ctx, systemPrompt, history, text)
	if err != nil {
		s.rollback(userMessage.ID)
		s.log.LogError(err, "chat provider call failed",
			"provider", providerName,
			"character_id", characterID,
		)
		s.metrics.RecordTurn(ctx, providerName, observability.OutcomeProviderError)
		return nil, apperrors.NewBadGatewayError("PROVIDER_FAILED", "AI 响应失败："+err.Error())
	}

	assistantMessage := &models.Message{
		ID:          uuid.NewString(),
		CharacterID: characterID,
		Text:        reply,
		IsUser:      false,
		Timestamp:   time.Now().UnixMilli(),
	}
	if err := s.messages.Create(assistantMessage); err != nil {
		s.metrics.RecordTurn(ctx, providerName, observability.OutcomeStoreError)
		return nil, err
	}

	s.metrics.RecordTurn(ctx, providerName, observability.OutcomeSuccess)
	return assistantMessage, nil
}

// ListMessages returns the full conversation log in ascending timestamp order.
func (s *ChatService) ListMessages(characterID string) ([]models.Message, error) {
	return s.messages.ListByCharacter(characterID)
}

// ClearMessages wipes the conversation log for a character.
func (s *ChatService) ClearMessages(characterID string) error {
	return s.messages.ClearByCharacter(characterID)
}

// priorHistory loads the most recent messages as provider turns, excluding the
// user message that started the current turn.
func (s *ChatService) priorHistory(characterID, excludeID string) ([]ai.Turn, error) {
	recent, err := s.messages.ListRecent(characterID, s.historyLimit)
	if err != nil {
		return nil, err
	}

	history := make([]ai.Turn, 0, len(recent))
	for _, msg := range recent {
		if msg.ID == excludeID {
			continue
		}
		role := ai.RoleAssistant
		if msg.IsUser {
			role = ai.RoleUser
		}
		history = append(history, ai.Turn{Role: role, Content: msg.Text})
	}
	return history, nil
}

// rollback deletes the user message written at the start of a failed turn. A
// failed delete is logged; the provider error still reaches the caller.
func (s *ChatService) rollback(messageID string) {
	if err := s.messages.Delete(messageID); err != nil {
		s.log.LogError(err, "failed to roll back user message", "message_id", messageID)
	}
}
