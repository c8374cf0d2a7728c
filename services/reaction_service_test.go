package services

import (
	"context"
	"testing"
	"time"

	"projecthub_server/models"

	"github.com/stretchr/testify/require"
)

func TestAddReactionKeepsOnePerUser(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := env.seedMessage("alice", "bob", models.RecipientUser, "shipped it", base)

	_, err := env.reactions.AddReaction(ctx, "bob", msg.MessageID, "👍")
	require.NoError(t, err)
	updated, err := env.reactions.AddReaction(ctx, "bob", msg.MessageID, "🎉")
	require.NoError(t, err)

	require.Equal(t, map[string]string{"bob": "🎉"}, updated.Reactions)
}

func TestReactionsFromDifferentUsersCoexist(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")
	env.addTeam("team-1", "Core", "alice", "bob")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := env.seedMessage("alice", "team-1", models.RecipientTeam, "demo friday", base)

	_, err := env.reactions.AddReaction(ctx, "alice", msg.MessageID, "🔥")
	require.NoError(t, err)
	updated, err := env.reactions.AddReaction(ctx, "bob", msg.MessageID, "👍")
	require.NoError(t, err)

	require.Equal(t, map[string]string{"alice": "🔥", "bob": "👍"}, updated.Reactions)
}

func TestRemoveReactionIsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := env.seedMessage("alice", "bob", models.RecipientUser, "hey", base)

	_, err := env.reactions.AddReaction(ctx, "bob", msg.MessageID, "👍")
	require.NoError(t, err)

	updated, err := env.reactions.RemoveReaction(ctx, "bob", msg.MessageID)
	require.NoError(t, err)
	require.Empty(t, updated.Reactions)

	// Removing again succeeds and stays empty.
	updated, err = env.reactions.RemoveReaction(ctx, "bob", msg.MessageID)
	require.NoError(t, err)
	require.Empty(t, updated.Reactions)
}

func TestAddReactionDeniedForOutsider(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")
	env.addUser("mallory", "Mallory")
	env.addProject("proj-1", "Apollo", "alice", "bob")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := env.seedMessage("alice", "proj-1", models.RecipientProject, "kickoff", base)

	_, err := env.reactions.AddReaction(ctx, "mallory", msg.MessageID, "👀")
	require.ErrorIs(t, err, ErrNotAuthorized)

	stored, err := env.store.GetByID(ctx, msg.MessageID)
	require.NoError(t, err)
	require.Empty(t, stored.Reactions)
}

func TestAddReactionRejectsEmptyEmoji(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := env.seedMessage("alice", "bob", models.RecipientUser, "hey", base)

	_, err := env.reactions.AddReaction(ctx, "bob", msg.MessageID, "  ")
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestReactionEventsReachThreadAudience(t *testing.T) {
	env := newTestEnv()
	env.addUser("alice", "Alice")
	env.addUser("bob", "Bob")
	env.addUser("carol", "Carol")
	env.addTeam("team-1", "Core", "alice", "bob", "carol")

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := env.seedMessage("alice", "team-1", models.RecipientTeam, "demo friday", base)

	_, err := env.reactions.AddReaction(ctx, "bob", msg.MessageID, "👍")
	require.NoError(t, err)

	require.Len(t, env.broadcast.eventsFor("alice", EventMessageReaction), 1)
	require.Len(t, env.broadcast.eventsFor("carol", EventMessageReaction), 1)
	require.Empty(t, env.broadcast.eventsFor("bob", EventMessageReaction))
}
