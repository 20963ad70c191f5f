package models

// Message is one entry in a character's conversation log. Messages are never
// updated in place; ascending timestamp order defines conversation order.
type Message struct {
	ID          string `json:"id" gorm:"primaryKey"`
	CharacterID string `json:"-" gorm:"index;not null"`
	Text        string `json:"text" gorm:"not null"`
	IsUser      bool   `json:"isUser"`
	// Milliseconds since epoch.
	Timestamp int64 `json:"timestamp" gorm:"index"`
}

// SendMessageRequest is the payload for POST /api/messages/:characterId.
type SendMessageRequest struct {
	Text string `json:"text"`
}
