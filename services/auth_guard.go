package services

import (
	"context"

	"projecthub_server/models"
)

// AuthGuard decides whether a caller may post to, read from or react in a
// recipient scope. Team and project checks fail closed: a nonexistent
// entity and a non-member caller are indistinguishable to the caller.
type AuthGuard struct {
	Directory Directory
}

// CanPost reports whether userID may send a message to the recipient.
// Direct messages have no membership concept; either party may post.
func (g *AuthGuard) CanPost(ctx context.Context, userID, recipientID string, kind models.RecipientType) error {
	return g.check(ctx, userID, recipientID, kind)
}

// CanRead reports whether userID may read (and react to) messages in the
// recipient scope. For direct messages only the two parties qualify.
func (g *AuthGuard) CanRead(ctx context.Context, userID, recipientID string, kind models.RecipientType) error {
	return g.check(ctx, userID, recipientID, kind)
}

// CanReadMessage re-authorizes a caller against a specific message's
// recipient scope. Visibility: the sender always; the other direct party;
// or any current member of the team/project.
func (g *AuthGuard) CanReadMessage(ctx context.Context, userID string, msg *models.Message) error {
	if msg.SenderID == userID {
		return nil
	}
	if msg.Type == models.RecipientUser {
		if msg.RecipientID == userID {
			return nil
		}
		return ErrNotAuthorized
	}
	return g.check(ctx, userID, msg.RecipientID, msg.Type)
}

func (g *AuthGuard) check(ctx context.Context, userID, recipientID string, kind models.RecipientType) error {
	switch kind {
	case models.RecipientUser:
		return nil
	case models.RecipientTeam, models.RecipientProject:
		isMember, err := g.Directory.IsMember(ctx, userID, kind, recipientID)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrNotAuthorized
		}
		return nil
	}
	return ErrInvalidRecipient
}
