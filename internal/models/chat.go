package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatConversation groups the messages a user exchanged about a report.
type ChatConversation struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"userId"`
	ReportID  string    `gorm:"type:uuid;index" json:"reportId,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Messages []ChatMessage `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

// TableName specifies the table name for ChatConversation model
func (ChatConversation) TableName() string {
	return "chat_conversations"
}

// ChatMessage is a single turn in a conversation. Role is user | assistant | system.
type ChatMessage struct {
	ID             string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ConversationID string         `gorm:"type:uuid;not null;index" json:"conversationId"`
	Role           string         `gorm:"not null" json:"role"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}
