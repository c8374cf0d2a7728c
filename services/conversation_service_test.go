package services

import (
	"context"
	"testing"
	"time"

	"projecthub_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListConversationsMergesKindsByRecency(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")
	env.addTeam("team-1", "Core", "alice", "bob")
	env.addProject("proj-1", "Apollo", "alice", "bob")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.seedMessage("alice", "bob", models.RecipientUser, "direct first", base)
	env.seedMessage("alice", "proj-1", models.RecipientProject, "project second", base.Add(time.Minute))
	env.seedMessage("alice", "team-1", models.RecipientTeam, "team third", base.Add(2*time.Minute))

	conversations, err := env.conversations.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, conversations, 3)

	assert.Equal(t, "team-1", conversations[0].ID)
	assert.Equal(t, models.RecipientTeam, conversations[0].Type)
	assert.Equal(t, "proj-1", conversations[1].ID)
	assert.Equal(t, models.RecipientProject, conversations[1].Type)
	assert.Equal(t, "alice", conversations[2].ID)
	assert.Equal(t, models.RecipientUser, conversations[2].Type)

	assert.Equal(t, "team third", conversations[0].LastMessage.Content)
	assert.Equal(t, 1, conversations[0].UnreadCount)
	assert.Equal(t, "Core", conversations[0].Name)
	assert.Equal(t, "Alice", conversations[2].Name)
}

func TestListConversationsOmitsSilentEntities(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")
	env.addTeam("team-1", "Core", "alice", "bob")
	env.addTeam("team-2", "Quiet", "bob")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	env.seedMessage("alice", "team-1", models.RecipientTeam, "only here", base)

	conversations, err := env.conversations.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "team-1", conversations[0].ID)
}

func TestGroupByCounterpartFoldsBothDirections(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mk := func(sender, recipient, content string, at time.Time, readBy ...string) models.Message {
		return models.Message{
			ThreadID:    models.DirectThreadID(sender, recipient),
			CreatedAt:   models.Timestamp(at),
			MessageID:   content,
			SenderID:    sender,
			RecipientID: recipient,
			Type:        models.RecipientUser,
			Content:     content,
			ReadBy:      readBy,
		}
	}

	messages := []models.Message{
		mk("bob", "alice", "hi alice", base, "bob"),
		mk("alice", "bob", "hi bob", base.Add(time.Minute), "alice"),
		mk("carol", "bob", "hey", base.Add(2*time.Minute), "carol"),
		mk("carol", "bob", "you there?", base.Add(3*time.Minute), "carol", "bob"),
	}

	conversations := groupByCounterpart(messages, "bob")
	require.Len(t, conversations, 2)

	assert.Equal(t, "alice", conversations[0].ID)
	assert.Equal(t, "hi bob", conversations[0].LastMessage.Content)
	assert.Equal(t, 1, conversations[0].UnreadCount)

	assert.Equal(t, "carol", conversations[1].ID)
	assert.Equal(t, "you there?", conversations[1].LastMessage.Content)
	assert.Equal(t, 1, conversations[1].UnreadCount)
}

func TestGroupByCounterpartNeverCountsOwnMessagesUnread(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{
			ThreadID:    models.DirectThreadID("bob", "alice"),
			CreatedAt:   models.Timestamp(base),
			MessageID:   "m1",
			SenderID:    "bob",
			RecipientID: "alice",
			Type:        models.RecipientUser,
			Content:     "sent by me",
			ReadBy:      []string{"bob"},
		},
	}

	conversations := groupByCounterpart(messages, "bob")
	require.Len(t, conversations, 1)
	assert.Equal(t, 0, conversations[0].UnreadCount)
}
