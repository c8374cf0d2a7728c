package services

import (
	"context"
	"sort"

	"projecthub_server/models"
)

// ConversationService builds the merged conversation list: one entry per
// direct peer, one per team, one per project, sorted by recency. The list
// is derived state, recomputed from the message store on every call.
type ConversationService struct {
	Store     MessageStore
	Directory Directory
}

// ListConversations aggregates the caller's conversations across all three
// recipient kinds. Groups are collected in direct, team, project order and
// merged with a stable sort, so equal timestamps keep that insertion order.
func (s *ConversationService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	conversations, err := s.directConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	teams, err := s.Directory.TeamsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		conv, err := s.entityConversation(ctx, userID, models.RecipientTeam, team.TeamID, team.Name, team.Avatar)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			conversations = append(conversations, *conv)
		}
	}

	projects, err := s.Directory.ProjectsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		conv, err := s.entityConversation(ctx, userID, models.RecipientProject, project.ProjectID, project.Name, project.Avatar)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			conversations = append(conversations, *conv)
		}
	}

	sortConversations(conversations)
	return conversations, nil
}

// directConversations groups the caller's direct traffic by counterpart.
// The newest message in each group becomes lastMessage; unread counts only
// messages addressed to the caller that the caller has not read.
func (s *ConversationService) directConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	sent, err := s.Store.SentDirect(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.Store.ReceivedDirect(ctx, userID)
	if err != nil {
		return nil, err
	}

	conversations := groupByCounterpart(append(sent, received...), userID)

	for i := range conversations {
		profile, err := s.Directory.GetUserProfile(ctx, conversations[i].ID)
		if err == nil {
			conversations[i].Name = profile.Name
			conversations[i].Avatar = profile.Avatar
		}
	}
	return conversations, nil
}

// groupByCounterpart folds direct messages into per-peer conversations.
// Kept free of store/directory access so the grouping rules are testable
// on their own.
func groupByCounterpart(messages []models.Message, userID string) []models.Conversation {
	index := map[string]int{}
	var conversations []models.Conversation

	for i := range messages {
		msg := messages[i]
		counterpart := msg.SenderID
		if msg.SenderID == userID {
			counterpart = msg.RecipientID
		}

		at, ok := index[counterpart]
		if !ok {
			at = len(conversations)
			index[counterpart] = at
			conversations = append(conversations, models.Conversation{
				ID:   counterpart,
				Type: models.RecipientUser,
			})
		}

		if conversations[at].LastMessage == nil || msg.CreatedAt > conversations[at].LastMessage.CreatedAt {
			last := msg
			conversations[at].LastMessage = &last
		}
		if msg.RecipientID == userID && !msg.IsReadBy(userID) {
			conversations[at].UnreadCount++
		}
	}
	return conversations
}

// entityConversation builds one team/project conversation, or nil when the
// entity has no messages yet.
func (s *ConversationService) entityConversation(ctx context.Context, userID string, kind models.RecipientType, entityID, name, avatar string) (*models.Conversation, error) {
	threadID := models.EntityThreadID(kind, entityID)

	last, err := s.Store.LastMessage(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, nil
	}

	unread, err := s.Store.CountUnreadInThread(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}

	return &models.Conversation{
		ID:          entityID,
		Type:        kind,
		Name:        name,
		Avatar:      avatar,
		LastMessage: last,
		UnreadCount: unread,
	}, nil
}

// sortConversations orders by lastMessage recency, newest first. The sort
// is stable: ties keep the direct, team, project insertion order.
func sortConversations(conversations []models.Conversation) {
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt > conversations[j].LastMessage.CreatedAt
	})
}
