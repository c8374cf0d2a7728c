package services

import (
	"context"
	"log"
	"strings"

	"projecthub_server/models"
)

// ReactionService enforces at-most-one-reaction-per-user-per-message with
// replace/remove semantics.
type ReactionService struct {
	Store     MessageStore
	Guard     *AuthGuard
	Messages  *MessageService
	Broadcast Broadcaster
}

// ReactionEvent is the realtime payload for reaction changes.
type ReactionEvent struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Emoji     string `json:"emoji"`
}

// AddReaction sets the caller's reaction on a message, replacing any
// previous one atomically. Concurrent writers race benignly: whichever
// commits last wins, no conflict error. A user may react only to messages
// they could read.
func (s *ReactionService) AddReaction(ctx context.Context, userID, messageID, emoji string) (*models.Message, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, ErrEmptyContent
	}

	message, err := s.Store.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.CanReadMessage(ctx, userID, message); err != nil {
		return nil, err
	}

	updated, err := s.Store.SetReaction(ctx, message, userID, emoji)
	if err != nil {
		return nil, err
	}

	log.Printf("💬 Reaction %q by %s on message %s", emoji, userID, messageID)
	event := ReactionEvent{MessageID: messageID, UserID: userID, Emoji: emoji}
	s.Messages.fanOut(ctx, updated, userID, EventMessageReaction, event)
	s.Messages.fanOut(ctx, updated, userID, EventMessageUpdated, updated)
	return updated, nil
}

// RemoveReaction clears the caller's reaction. Removing a reaction that
// does not exist succeeds silently.
func (s *ReactionService) RemoveReaction(ctx context.Context, userID, messageID string) (*models.Message, error) {
	message, err := s.Store.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.CanReadMessage(ctx, userID, message); err != nil {
		return nil, err
	}

	emoji := message.Reactions[userID]

	updated, err := s.Store.RemoveReaction(ctx, message, userID)
	if err != nil {
		return nil, err
	}

	event := ReactionEvent{MessageID: messageID, UserID: userID, Emoji: emoji}
	s.Messages.fanOut(ctx, updated, userID, EventMessageReactionRemoved, event)
	s.Messages.fanOut(ctx, updated, userID, EventMessageUpdated, updated)
	return updated, nil
}
