package service

import (
	"errors"
	"strings"

	"ai-companion-demo/backend/internal/models"
	"ai-companion-demo/backend/internal/repository"
	apperrors "ai-companion-demo/backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CharacterService handles character CRUD and seeding.
type CharacterService struct {
	repo repository.CharacterRepository
}

func NewCharacterService(repo repository.CharacterRepository) *CharacterService {
	return &CharacterService{repo: repo}
}

// List returns all characters ordered by creation time ascending.
func (s *CharacterService) List() ([]models.Character, error) {
	return s.repo.GetAll()
}

// Get returns one character by id.
func (s *CharacterService) Get(id string) (*models.Character, error) {
	character, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("CHARACTER_NOT_FOUND", "角色不存在")
		}
		return nil, err
	}
	return character, nil
}

// Create validates the request, fills defaults and persists a new character.
// Callers may supply their own id; otherwise one is generated.
func (s *CharacterService) Create(req models.CreateCharacterRequest) (*models.Character, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewBadRequestError("INVALID_NAME", "角色名称不能为空")
	}

	req.ApplyDefaults()

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	character := &models.Character{
		ID:          id,
		Name:        req.Name,
		Avatar:      req.Avatar,
		Description: req.Description,
		Intro:       req.Intro,
		Level:       req.Level,
		Personality: req.Personality,
		Voice:       req.Voice,
	}

	if err := s.repo.Create(character); err != nil {
		return nil, err
	}
	return character, nil
}

// Update replaces all mutable attributes of an existing character. Identity
// and creation time never change.
func (s *CharacterService) Update(id string, req models.UpdateCharacterRequest) (*models.Character, error) {
	character, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewBadRequestError("INVALID_NAME", "角色名称不能为空")
	}

	character.Name = strings.TrimSpace(req.Name)
	character.Avatar = req.Avatar
	character.Description = req.Description
	character.Intro = req.Intro
	character.Level = req.Level
	character.Personality = req.Personality
	character.Voice = req.Voice

	if err := s.repo.Update(character); err != nil {
		return nil, err
	}
	return character, nil
}

// Delete removes a character together with its message log. Deleting an
// unknown id is a no-op.
func (s *CharacterService) Delete(id string) error {
	return s.repo.Delete(id)
}

// SeedDefaults inserts the stock companions when the store is empty.
func (s *CharacterService) SeedDefaults() error {
	count, err := s.repo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seeds := []models.Character{
		{
			ID:          "1",
			Name:        "阳光伙伴",
			Avatar:      "https://api.dicebear.com/7.x/avataaars/svg?seed=Oliver",
			Description: "你的24小时温暖陪伴，倾听一切",
			Intro:       "我是阳光伙伴，喜欢听你分享生活的点滴，随时为你加油打气～",
			Level:       "Lv2 · 常来常往",
			Personality: "温暖型",
			Voice:       models.DefaultVoice,
		},
		{
			ID:          "2",
			Name:        "偶像星语",
			Avatar:      "https://i.pravatar.cc/300?img=68",
			Description: "专属AI偶像，陪你追剧聊心事",
			Intro:       "我是你的专属AI偶像，无论什么时候我都会在你身边支持你！",
			Level:       models.DefaultLevel,
			Personality: "幽默型",
			Voice:       models.DefaultVoice,
		},
		{
			ID:          "3",
			Name:        "喵星人",
			Avatar:      "https://images.unsplash.com/photo-1514888286974-6c03e2ca1dba?w=200&h=200&fit=crop",
			Description: "治愈系小猫，随时求摸摸～🐾",
			Intro:       "嘿，今天过得怎么样？来聊聊吧～我是喵星人，也是你的心动语言伙伴。在这里你可以畅所欲言哦！",
			Level:       models.DefaultLevel,
			Personality: "治愈型",
			Voice:       models.DefaultVoice,
		},
	}

	for i := range seeds {
		if err := s.repo.Create(&seeds[i]); err != nil {
			return err
		}
	}
	return nil
}
