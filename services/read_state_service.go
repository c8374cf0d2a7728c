package services

import (
	"context"
	"log"

	"projecthub_server/models"
)

// ReadStateService owns read receipts and unread aggregation. Every
// operation here is idempotent: marking a read message read again changes
// nothing.
type ReadStateService struct {
	Store     MessageStore
	Directory Directory
	Guard     *AuthGuard
}

// MarkRead adds the caller's read receipt to a single message. For a
// direct message addressed to the caller the status also moves to read.
func (s *ReadStateService) MarkRead(ctx context.Context, userID, messageID string) error {
	message, err := s.Store.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.Guard.CanReadMessage(ctx, userID, message); err != nil {
		return err
	}

	statusRead := message.Type == models.RecipientUser && message.RecipientID == userID
	return s.Store.AddReadReceipt(ctx, message, userID, statusRead)
}

// MarkThreadRead marks every currently-unread message in one thread read
// for the caller. The counterpart id may name a user, team or project; the
// kind is probed the way the untyped thread route resolves it.
func (s *ReadStateService) MarkThreadRead(ctx context.Context, userID, counterpartID string) error {
	handle, err := s.Directory.ResolveAny(ctx, counterpartID)
	if err != nil {
		return err
	}

	if handle.Kind == models.RecipientUser {
		return s.markDirectThreadRead(ctx, userID, handle.ID)
	}

	if err := s.Guard.CanRead(ctx, userID, handle.ID, handle.Kind); err != nil {
		return err
	}
	return s.markEntityThreadRead(ctx, userID, models.EntityThreadID(handle.Kind, handle.ID))
}

// markDirectThreadRead receipts every unread message from the other party.
// The caller's own messages never show up unread: readBy is seeded with the
// sender at create time.
func (s *ReadStateService) markDirectThreadRead(ctx context.Context, userID, otherID string) error {
	unread, err := s.Store.UnreadInThread(ctx, models.DirectThreadID(userID, otherID), userID)
	if err != nil {
		return err
	}

	for i := range unread {
		if err := s.Store.AddReadReceipt(ctx, &unread[i], userID, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReadStateService) markEntityThreadRead(ctx context.Context, userID, threadID string) error {
	unread, err := s.Store.UnreadInThread(ctx, threadID, userID)
	if err != nil {
		return err
	}

	for i := range unread {
		if err := s.Store.AddReadReceipt(ctx, &unread[i], userID, false); err != nil {
			return err
		}
	}
	return nil
}

// MarkAllRead receipts the caller's direct inbox plus every team and
// project the caller belongs to, as of the membership snapshot at call
// time. A message racing in concurrently may stay unread.
func (s *ReadStateService) MarkAllRead(ctx context.Context, userID string) error {
	received, err := s.Store.ReceivedDirect(ctx, userID)
	if err != nil {
		return err
	}
	for i := range received {
		if received[i].IsReadBy(userID) {
			continue
		}
		if err := s.Store.AddReadReceipt(ctx, &received[i], userID, true); err != nil {
			return err
		}
	}

	teams, err := s.Directory.TeamsFor(ctx, userID)
	if err != nil {
		return err
	}
	for _, team := range teams {
		if err := s.markEntityThreadRead(ctx, userID, models.EntityThreadID(models.RecipientTeam, team.TeamID)); err != nil {
			return err
		}
	}

	projects, err := s.Directory.ProjectsFor(ctx, userID)
	if err != nil {
		return err
	}
	for _, project := range projects {
		if err := s.markEntityThreadRead(ctx, userID, models.EntityThreadID(models.RecipientProject, project.ProjectID)); err != nil {
			return err
		}
	}

	log.Printf("✅ All messages marked read for %s", userID)
	return nil
}

// UnreadCounts aggregates the caller's unread messages by recipient kind:
// one count for the direct inbox, one per current team, one per current
// project.
func (s *ReadStateService) UnreadCounts(ctx context.Context, userID string) (*models.UnreadCounts, error) {
	counts := &models.UnreadCounts{}

	direct, err := s.Store.CountUnreadDirect(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts.Direct = direct

	teams, err := s.Directory.TeamsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		n, err := s.Store.CountUnreadInThread(ctx, models.EntityThreadID(models.RecipientTeam, team.TeamID), userID)
		if err != nil {
			return nil, err
		}
		counts.Team += n
	}

	projects, err := s.Directory.ProjectsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		n, err := s.Store.CountUnreadInThread(ctx, models.EntityThreadID(models.RecipientProject, project.ProjectID), userID)
		if err != nil {
			return nil, err
		}
		counts.Project += n
	}

	counts.Total = counts.Direct + counts.Team + counts.Project
	return counts, nil
}
