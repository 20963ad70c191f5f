package di

import (
	"context"
	"fmt"
	"net/http"

	"ai-companion-demo/backend/ai"
	"ai-companion-demo/backend/internal/repository"
	"ai-companion-demo/backend/internal/service"
	"ai-companion-demo/backend/pkg/cache"
	"ai-companion-demo/backend/pkg/config"
	"ai-companion-demo/backend/pkg/logger"
	"ai-companion-demo/backend/pkg/observability"
	"ai-companion-demo/backend/pkg/secrets"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application. The store handle
// and every service are constructed once at startup and injected; nothing
// hangs off module-level state.
type Container struct {
	DB               *gorm.DB
	Logger           *logger.Logger
	Metrics          *observability.Metrics
	MetricsHandler   http.Handler
	ChatProvider     ai.ChatProvider
	CharacterService *service.CharacterService
	ChatService      *service.ChatService
	SpeechService    *service.SpeechService
}

// New creates a new dependency injection container
func New(db *gorm.DB, log *logger.Logger) (*Container, error) {
	cfg := config.Get()
	ctx := context.Background()

	secretsManager, err := secrets.NewManagerFromEnv(log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets manager: %w", err)
	}
	geminiKey := secretsManager.GetSecretWithDefault(ctx, "GEMINI_API_KEY", "")
	groqKey := secretsManager.GetSecretWithDefault(ctx, "GROQ_API_KEY", "")

	// Metrics
	metrics, metricsHandler, err := observability.Setup()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Chat provider selection
	provider, err := newChatProvider(ctx, cfg, geminiKey, groqKey)
	if err != nil {
		return nil, err
	}
	log.Info("chat provider configured", "provider", provider.Name())

	// Speech synthesizer, optional
	var synth ai.SpeechSynthesizer
	if geminiKey != "" {
		geminiSpeech, err := ai.NewGeminiSpeech(ctx, geminiKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create speech client: %w", err)
		}
		synth = geminiSpeech
	} else {
		log.Warn("GEMINI_API_KEY not configured, speech synthesis is disabled")
	}

	// Audio cache backend
	var audioStore cache.Store
	if cfg.Cache.RedisURL != "" {
		redisStore, err := cache.NewRedis(cfg.Cache.RedisURL, cfg.Cache.TTL, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		audioStore = redisStore
		log.Info("audio cache backed by redis")
	} else {
		audioStore = cache.NewMemory(cfg.Cache.TTL, cfg.Cache.PurgeWindow, cfg.Cache.MaxSize)
	}

	// Repositories
	characterRepo := repository.NewGormCharacterRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Services
	characterService := service.NewCharacterService(characterRepo)
	chatService := service.NewChatService(characterRepo, messageRepo, provider, cfg.Chat.HistoryLimit, metrics, log)
	speechService := service.NewSpeechService(synth, audioStore, metrics, log)

	return &Container{
		DB:               db,
		Logger:           log,
		Metrics:          metrics,
		MetricsHandler:   metricsHandler,
		ChatProvider:     provider,
		CharacterService: characterService,
		ChatService:      chatService,
		SpeechService:    speechService,
	}, nil
}

// newChatProvider picks the chat backend from configuration.
func newChatProvider(ctx context.Context, cfg *config.Config, geminiKey, groqKey string) (ai.ChatProvider, error) {
	switch cfg.Chat.Provider {
	case config.ProviderGemini:
		if geminiKey == "" {
			return nil, fmt.Errorf("CHAT_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return ai.NewGeminiClient(ctx, geminiKey)
	case config.ProviderGroq:
		if groqKey == "" {
			return nil, fmt.Errorf("CHAT_PROVIDER=groq requires GROQ_API_KEY")
		}
		return ai.NewGroqClient(groqKey), nil
	case config.ProviderPollinations:
		return ai.NewPollinationsClient(cfg.Chat.PollinationsBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Chat.Provider)
	}
}
