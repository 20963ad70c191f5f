package models

import (
	"fmt"
	"net/url"
	"strings"
)

// Default field values applied when a character is created with fields omitted.
const (
	DefaultDescription = "一个新伙伴"
	DefaultLevel       = "Lv1 · 初识"
	DefaultPersonality = "温暖型"
	DefaultVoice       = "默认甜美女声"
)

// Character is a persisted persona the user converses with.
type Character struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Avatar      string `json:"avatar"`
	Description string `json:"description"`
	Intro       string `json:"intro"`
	Level       string `json:"level"`
	Personality string `json:"personality"`
	Voice       string `json:"voice"`
	// Seconds since epoch, server-assigned at insert.
	CreatedAt int64     `json:"created_at" gorm:"autoCreateTime"`
	Messages  []Message `json:"-" gorm:"foreignKey:CharacterID;constraint:OnDelete:CASCADE"`
}

// CreateCharacterRequest is the payload for POST /api/characters.
// Only the name is required; everything else falls back to defaults.
type CreateCharacterRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Description string `json:"description"`
	Intro       string `json:"intro"`
	Level       string `json:"level"`
	Personality string `json:"personality"`
	Voice       string `json:"voice"`
}

// UpdateCharacterRequest is the payload for PUT /api/characters/:id.
// The update is a full replace of the mutable attributes.
type UpdateCharacterRequest struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Description string `json:"description"`
	Intro       string `json:"intro"`
	Level       string `json:"level"`
	Personality string `json:"personality"`
	Voice       string `json:"voice"`
}

// DefaultAvatarURL returns the generated avatar for characters created without one.
func DefaultAvatarURL(name string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(name)
}

// DefaultIntro returns the greeting used when a character is created without one.
func DefaultIntro(name string) string {
	return fmt.Sprintf("我是%s，很高兴认识你！", name)
}

// ApplyDefaults fills every omitted attribute with its fallback value.
// The name must already be validated as non-empty.
func (r *CreateCharacterRequest) ApplyDefaults() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Avatar == "" {
		r.Avatar = DefaultAvatarURL(r.Name)
	}
	if r.Description == "" {
		r.Description = DefaultDescription
	}
	if r.Intro == "" {
		r.Intro = DefaultIntro(r.Name)
	}
	if r.Level == "" {
		r.Level = DefaultLevel
	}
	if r.Personality == "" {
		r.Personality = DefaultPersonality
	}
	if r.Voice == "" {
		r.Voice = DefaultVoice
	}
}
