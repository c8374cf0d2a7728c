package services

import (
	"context"
	"log"
	"strings"
	"time"

	"projecthub_server/models"

	"github.com/google/uuid"
)

// MessageService implements sending, fetching, editing and deleting
// messages, plus the realtime fan-out that follows each mutation.
type MessageService struct {
	Store     MessageStore
	Directory Directory
	Guard     *AuthGuard
	Broadcast Broadcaster
}

// SendDirect persists a direct message to another user and pushes a
// newMessage event to the other party.
func (s *MessageService) SendDirect(ctx context.Context, senderID, recipientID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if recipientID == "" {
		return nil, ErrInvalidRecipient
	}

	// The recipient must be a real platform user.
	if _, err := s.Directory.GetUserProfile(ctx, recipientID); err != nil {
		return nil, err
	}

	message := s.newMessage(senderID, recipientID, models.RecipientUser, content)
	if err := s.Store.Put(ctx, message); err != nil {
		return nil, err
	}

	log.Printf("📩 Direct message %s stored (%s → %s)", message.MessageID, senderID, recipientID)
	s.fanOut(ctx, &message, senderID, EventNewMessage, &message)
	return &message, nil
}

// SendToEntity persists a team or project message and pushes newMessage to
// every current member except the sender. Posting requires membership.
func (s *MessageService) SendToEntity(ctx context.Context, senderID string, kind models.RecipientType, entityID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if kind != models.RecipientTeam && kind != models.RecipientProject {
		return nil, ErrInvalidRecipient
	}

	if err := s.Guard.CanPost(ctx, senderID, entityID, kind); err != nil {
		return nil, err
	}

	message := s.newMessage(senderID, entityID, kind, content)
	if err := s.Store.Put(ctx, message); err != nil {
		return nil, err
	}

	log.Printf("📩 %s message %s stored for %s", kind, message.MessageID, entityID)
	s.fanOut(ctx, &message, senderID, EventNewMessage, &message)
	return &message, nil
}

func (s *MessageService) newMessage(senderID, recipientID string, kind models.RecipientType, content string) models.Message {
	now := models.Timestamp(time.Now())
	return models.Message{
		ThreadID:    models.ThreadIDFor(senderID, recipientID, kind),
		CreatedAt:   now,
		MessageID:   uuid.New().String(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Type:        kind,
		Content:     content,
		Status:      models.StatusSent,
		ReadBy:      []string{senderID}, // Sender has read their own message
		Reactions:   map[string]string{},
		UpdatedAt:   now,
	}
}

// DirectThread returns one page of the conversation between userID and
// otherID, newest first, with per-caller isMine flags.
func (s *MessageService) DirectThread(ctx context.Context, userID, otherID string, page, limit int) ([]models.ThreadMessage, error) {
	if _, err := s.Directory.GetUserProfile(ctx, otherID); err != nil {
		return nil, err
	}

	messages, err := s.Store.Thread(ctx, models.DirectThreadID(userID, otherID), page, limit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, messages, userID), nil
}

// EntityThread returns one page of a team/project inbox. Reading requires
// current membership; history is never truncated for late joiners.
func (s *MessageService) EntityThread(ctx context.Context, userID string, kind models.RecipientType, entityID string, page, limit int) ([]models.ThreadMessage, error) {
	if err := s.Guard.CanRead(ctx, userID, entityID, kind); err != nil {
		return nil, err
	}

	messages, err := s.Store.Thread(ctx, models.EntityThreadID(kind, entityID), page, limit)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, messages, userID), nil
}

// decorate attaches the isMine flag and sender display info for a reader.
// Profile lookups are best effort; a missing profile leaves the name blank.
func (s *MessageService) decorate(ctx context.Context, messages []models.Message, userID string) []models.ThreadMessage {
	profiles := map[string]*models.UserProfile{}
	decorated := make([]models.ThreadMessage, 0, len(messages))

	for _, msg := range messages {
		profile, seen := profiles[msg.SenderID]
		if !seen {
			profile, _ = s.Directory.GetUserProfile(ctx, msg.SenderID)
			profiles[msg.SenderID] = profile
		}

		tm := models.ThreadMessage{Message: msg, IsMine: msg.SenderID == userID}
		if profile != nil {
			tm.SenderName = profile.Name
			tm.SenderAvatar = profile.Avatar
		}
		decorated = append(decorated, tm)
	}
	return decorated
}

// EditMessage replaces a message's content. Sender only.
func (s *MessageService) EditMessage(ctx context.Context, userID, messageID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	message, err := s.Store.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderID != userID {
		return nil, ErrNotAuthorized
	}

	updated, err := s.Store.UpdateContent(ctx, message, content)
	if err != nil {
		return nil, err
	}

	s.fanOut(ctx, updated, userID, EventMessageUpdated, updated)
	return updated, nil
}

// DeleteMessage removes a message permanently. Sender only.
func (s *MessageService) DeleteMessage(ctx context.Context, userID, messageID string) error {
	message, err := s.Store.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return ErrNotAuthorized
	}

	if err := s.Store.Delete(ctx, message); err != nil {
		return err
	}

	log.Printf("🗑️ Message %s deleted by sender %s", messageID, userID)
	s.fanOut(ctx, message, userID, EventMessageDeleted, map[string]string{"messageId": messageID})
	return nil
}

// fanOut pushes an event to the message's audience minus the acting user:
// the other direct party, or every current member of the team/project.
// Failures to resolve the audience drop the push; persistence already won.
func (s *MessageService) fanOut(ctx context.Context, msg *models.Message, actorID, event string, payload interface{}) {
	for _, userID := range s.audience(ctx, msg, actorID) {
		s.Broadcast.EmitToUser(userID, event, payload)
	}
}

func (s *MessageService) audience(ctx context.Context, msg *models.Message, actorID string) []string {
	if msg.Type == models.RecipientUser {
		if msg.SenderID == actorID {
			return []string{msg.RecipientID}
		}
		return []string{msg.SenderID}
	}

	handle, err := s.Directory.Resolve(ctx, msg.Type, msg.RecipientID)
	if err != nil {
		log.Printf("⚠️ Could not resolve %s %s for fan-out: %v", msg.Type, msg.RecipientID, err)
		return nil
	}

	audience := make([]string, 0, len(handle.Members))
	for _, member := range handle.Members {
		if member != actorID {
			audience = append(audience, member)
		}
	}
	return audience
}
