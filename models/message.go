package models

import (
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the sort-key timestamp format. Fixed-width fractional
// seconds keep DynamoDB's lexical sort-key order chronological (RFC3339Nano
// trims trailing zeros and would not).
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp formats t as a Messages sort-key value.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// RecipientType is the closed set of recipient kinds a message can be
// addressed to. All downstream logic dispatches on it.
type RecipientType string

const (
	RecipientUser    RecipientType = "user"
	RecipientTeam    RecipientType = "team"
	RecipientProject RecipientType = "project"
)

// IsValid reports whether t is one of the three known recipient kinds.
func (t RecipientType) IsValid() bool {
	return t == RecipientUser || t == RecipientTeam || t == RecipientProject
}

// Message statuses. Only meaningful for user-addressed messages; team and
// project messages rely on the per-reader readBy set instead.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// MessageMetadata holds the optional extras attached to a message.
type MessageMetadata struct {
	Attachments     []string `dynamodbav:"attachments,omitempty" json:"attachments,omitempty"`
	Mentions        []string `dynamodbav:"mentions,omitempty" json:"mentions,omitempty"`
	IsSystemMessage bool     `dynamodbav:"isSystemMessage" json:"isSystemMessage"`
	Edited          bool     `dynamodbav:"edited" json:"edited"`
}

// Message represents a chat message stored in DynamoDB.
type Message struct {
	ThreadID    string            `dynamodbav:"threadId" json:"-"`         // ✅ Partition Key (derived conversation key)
	CreatedAt   string            `dynamodbav:"createdAt" json:"createdAt"` // ✅ Sort Key (fixed-width UTC timestamp)
	MessageID   string            `dynamodbav:"messageId" json:"messageId"` // ✅ Unique message ID (UUID-based), indexed via GSI
	SenderID    string            `dynamodbav:"senderId" json:"senderId"`
	RecipientID string            `dynamodbav:"recipientId" json:"recipientId"`
	Type        RecipientType     `dynamodbav:"recipientType" json:"recipientType"`
	Content     string            `dynamodbav:"content" json:"content"`
	Status      string            `dynamodbav:"status" json:"status"`
	ReadBy      []string          `dynamodbav:"readBy,stringset" json:"readBy"` // ✅ Stored as a DynamoDB string set
	Reactions   map[string]string `dynamodbav:"reactions" json:"reactions"` // always present so SET reactions.#uid has a parent path
	Metadata    MessageMetadata   `dynamodbav:"metadata" json:"metadata"`
	UpdatedAt   string            `dynamodbav:"updatedAt" json:"updatedAt"`
}

// IsReadBy reports whether userID has acknowledged the message.
func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// DirectThreadID returns the canonical thread key for a pair of users.
// Both orderings of the pair map to the same key.
func DirectThreadID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return "user#" + strings.Join(pair, "#")
}

// EntityThreadID returns the thread key for a team or project inbox.
func EntityThreadID(kind RecipientType, entityID string) string {
	return string(kind) + "#" + entityID
}

// ThreadIDFor derives the storage thread key for a message address as seen
// by the sending user.
func ThreadIDFor(senderID, recipientID string, kind RecipientType) string {
	if kind == RecipientUser {
		return DirectThreadID(senderID, recipientID)
	}
	return EntityThreadID(kind, recipientID)
}

// ThreadMessage is a message decorated for a specific reader.
type ThreadMessage struct {
	Message
	IsMine       bool   `json:"isMine"`
	SenderName   string `json:"senderName,omitempty"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
}

// Conversation is a derived view: one entry per direct peer, team or
// project, recomputed from the Messages table on every request.
type Conversation struct {
	ID          string        `json:"id"`
	Type        RecipientType `json:"type"`
	Name        string        `json:"name"`
	Avatar      string        `json:"avatar,omitempty"`
	LastMessage *Message      `json:"lastMessage"`
	UnreadCount int           `json:"unreadCount"`
}

// UnreadCounts splits a user's unread total by recipient kind.
type UnreadCounts struct {
	Total   int `json:"total"`
	Direct  int `json:"direct"`
	Team    int `json:"team"`
	Project int `json:"project"`
}

// MessagesTable is the DynamoDB table name for chat messages
const MessagesTable = "Messages"

// Secondary indexes on the Messages table
const (
	MessageIdIndex = "MessageIdIndex" // messageId → message
	SenderIndex    = "SenderIndex"    // senderId + createdAt
	RecipientIndex = "RecipientIndex" // recipientId + createdAt
)
