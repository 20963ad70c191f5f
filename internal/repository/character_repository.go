package repository

import (
	"ai-companion-demo/backend/internal/models"

	"gorm.io/gorm"
)

type CharacterRepository interface {
	Create(character *models.Character) error
	GetByID(id string) (*models.Character, error)
	GetAll() ([]models.Character, error)
	Update(character *models.Character) error
	Delete(id string) error
	Count() (int64, error)
}

type GormCharacterRepository struct {
	db *gorm.DB
}

func NewGormCharacterRepository(db *gorm.DB) *GormCharacterRepository {
	return &GormCharacterRepository{db: db}
}

func (r *GormCharacterRepository) Create(character *models.Character) error {
	return r.db.Create(character).Error
}

func (r *GormCharacterRepository) GetByID(id string) (*models.Character, error) {
	var character models.Character
	err := r.db.First(&character, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &character, nil
}

func (r *GormCharacterRepository) GetAll() ([]models.Character, error) {
	var characters []models.Character
	err := r.db.Order("created_at ASC").Find(&characters).Error
	if characters == nil {
		characters = []models.Character{}
	}
	return characters, err
}

func (r *GormCharacterRepository) Update(character *models.Character) error {
	return r.db.Save(character).Error
}

// Delete removes the character and its entire message log. The messages are
// deleted explicitly in the same transaction rather than relying on the
// foreign_keys pragma being active.
func (r *GormCharacterRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Character{}, "id = ?", id).Error
	})
}

func (r *GormCharacterRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Character{}).Count(&count).Error
	return count, err
}
