package repository

import (
	"ai-companion-demo/backend/internal/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *models.Message) error
	Delete(id string) error
	ListByCharacter(characterID string) ([]models.Message, error)
	ListRecent(characterID string, limit int) ([]models.Message, error)
	ClearByCharacter(characterID string) error
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *GormMessageRepository) Delete(id string) error {
	return r.db.Delete(&models.Message{}, "id = ?", id).Error
}

func (r *GormMessageRepository) ListByCharacter(characterID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("character_id = ?", characterID).
		Order("timestamp ASC").
		Find(&messages).Error
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, err
}

// ListRecent returns the most recent limit messages for the character, in
// ascending timestamp order.
func (r *GormMessageRepository) ListRecent(characterID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("character_id = ?", characterID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Reverse back into conversation order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *GormMessageRepository) ClearByCharacter(characterID string) error {
	return r.db.Where("character_id = ?", characterID).Delete(&models.Message{}).Error
}
