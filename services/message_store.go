package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"projecthub_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MessageStore owns persisted messages. The read-state, reaction and
// conversation engines talk to this interface so they can be exercised
// against an in-memory store in tests.
//
// readBy and reactions are the only fields mutated by concurrent callers;
// every mutation on them here is an atomic set-add / map-set at the store,
// never a read-modify-write of the whole document.
type MessageStore interface {
	Put(ctx context.Context, message models.Message) error
	GetByID(ctx context.Context, messageID string) (*models.Message, error)
	Thread(ctx context.Context, threadID string, page, limit int) ([]models.Message, error)
	LastMessage(ctx context.Context, threadID string) (*models.Message, error)
	UpdateContent(ctx context.Context, msg *models.Message, content string) (*models.Message, error)
	Delete(ctx context.Context, msg *models.Message) error
	AddReadReceipt(ctx context.Context, msg *models.Message, userID string, alsoStatusRead bool) error
	SetReaction(ctx context.Context, msg *models.Message, userID, emoji string) (*models.Message, error)
	RemoveReaction(ctx context.Context, msg *models.Message, userID string) (*models.Message, error)
	UnreadInThread(ctx context.Context, threadID, userID string) ([]models.Message, error)
	CountUnreadInThread(ctx context.Context, threadID, userID string) (int, error)
	SentDirect(ctx context.Context, userID string) ([]models.Message, error)
	ReceivedDirect(ctx context.Context, userID string) ([]models.Message, error)
	CountUnreadDirect(ctx context.Context, userID string) (int, error)
}

// DynamoMessageStore is the production MessageStore backed by the Messages
// table (partition threadId, sort createdAt, GSIs on messageId, senderId
// and recipientId).
type DynamoMessageStore struct {
	Dynamo *DynamoService
}

func messageKey(msg *models.Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"threadId":  &types.AttributeValueMemberS{Value: msg.ThreadID},
		"createdAt": &types.AttributeValueMemberS{Value: msg.CreatedAt},
	}
}

func nowStamp() string {
	return models.Timestamp(time.Now())
}

// Put stores a new message document.
func (s *DynamoMessageStore) Put(ctx context.Context, message models.Message) error {
	if message.Reactions == nil {
		message.Reactions = map[string]string{}
	}
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		log.Printf("❌ Failed to store message %s: %v", message.MessageID, err)
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// GetByID looks a message up through the MessageIdIndex GSI.
func (s *DynamoMessageStore) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	keyCondition := "messageId = :messageId"
	expressionValues := map[string]types.AttributeValue{
		":messageId": &types.AttributeValueMemberS{Value: messageID},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessagesTable, models.MessageIdIndex, keyCondition, expressionValues, nil, "", 1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrMessageNotFound
	}

	var message models.Message
	if err := attributevalue.UnmarshalMap(items[0], &message); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &message, nil
}

// Thread fetches one page of a conversation, newest first. DynamoDB has no
// offset, so page N is served by reading page*limit newest items and
// slicing off the tail.
func (s *DynamoMessageStore) Thread(ctx context.Context, threadID string, page, limit int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	keyCondition := "threadId = :threadId"
	expressionValues := map[string]types.AttributeValue{
		":threadId": &types.AttributeValueMemberS{Value: threadID},
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, expressionValues, nil, "", int32(page*limit), true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}

	skip := (page - 1) * limit
	if skip >= len(messages) {
		return []models.Message{}, nil
	}
	return messages[skip:], nil
}

// LastMessage fetches the most recent message in a thread, or nil when the
// thread is empty.
func (s *DynamoMessageStore) LastMessage(ctx context.Context, threadID string) (*models.Message, error) {
	keyCondition := "threadId = :threadId"
	expressionValues := map[string]types.AttributeValue{
		":threadId": &types.AttributeValueMemberS{Value: threadID},
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, expressionValues, nil, "", 1, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch last message: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var lastMessage models.Message
	if err := attributevalue.UnmarshalMap(items[0], &lastMessage); err != nil {
		return nil, fmt.Errorf("failed to parse last message: %w", err)
	}
	return &lastMessage, nil
}

// UpdateContent replaces the body of a message and flags it as edited.
func (s *DynamoMessageStore) UpdateContent(ctx context.Context, msg *models.Message, content string) (*models.Message, error) {
	// content and metadata are reserved words
	updateExpression := "SET #c = :content, #md.edited = :true, updatedAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":content": &types.AttributeValueMemberS{Value: content},
		":true":    &types.AttributeValueMemberBOOL{Value: true},
		":now":     &types.AttributeValueMemberS{Value: nowStamp()},
	}
	expressionNames := map[string]string{"#c": "content", "#md": "metadata"}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, messageKey(msg), expressionValues, expressionNames)
	if err != nil {
		return nil, fmt.Errorf("failed to update message content: %w", err)
	}
	return unmarshalMessage(attrs)
}

// Delete removes a message permanently.
func (s *DynamoMessageStore) Delete(ctx context.Context, msg *models.Message) error {
	if err := s.Dynamo.DeleteItem(ctx, models.MessagesTable, messageKey(msg)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// AddReadReceipt adds userID to the message's readBy set. ADD on a string
// set is idempotent, so concurrent and repeated receipts are safe. For
// direct messages the status is flipped to read as well.
func (s *DynamoMessageStore) AddReadReceipt(ctx context.Context, msg *models.Message, userID string, alsoStatusRead bool) error {
	updateExpression := "SET updatedAt = :now ADD readBy :userId"
	expressionValues := map[string]types.AttributeValue{
		":now":    &types.AttributeValueMemberS{Value: nowStamp()},
		":userId": &types.AttributeValueMemberSS{Value: []string{userID}},
	}
	var expressionNames map[string]string
	if alsoStatusRead {
		updateExpression = "SET updatedAt = :now, #st = :read ADD readBy :userId"
		expressionValues[":read"] = &types.AttributeValueMemberS{Value: models.StatusRead}
		expressionNames = map[string]string{"#st": "status"}
	}

	if _, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, messageKey(msg), expressionValues, expressionNames); err != nil {
		return fmt.Errorf("failed to update read status: %w", err)
	}
	return nil
}

// SetReaction writes the user's reaction into the reactions map, replacing
// any previous entry for that user in a single atomic update.
func (s *DynamoMessageStore) SetReaction(ctx context.Context, msg *models.Message, userID, emoji string) (*models.Message, error) {
	updateExpression := "SET reactions.#userId = :emoji, updatedAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":emoji": &types.AttributeValueMemberS{Value: emoji},
		":now":   &types.AttributeValueMemberS{Value: nowStamp()},
	}
	expressionNames := map[string]string{"#userId": userID}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, messageKey(msg), expressionValues, expressionNames)
	if err != nil {
		return nil, fmt.Errorf("failed to set reaction: %w", err)
	}
	return unmarshalMessage(attrs)
}

// RemoveReaction removes the user's reactions map entry. Removing an entry
// that does not exist is a silent no-op.
func (s *DynamoMessageStore) RemoveReaction(ctx context.Context, msg *models.Message, userID string) (*models.Message, error) {
	updateExpression := "SET updatedAt = :now REMOVE reactions.#userId"
	expressionValues := map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberS{Value: nowStamp()},
	}
	expressionNames := map[string]string{"#userId": userID}

	attrs, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, updateExpression, messageKey(msg), expressionValues, expressionNames)
	if err != nil {
		return nil, fmt.Errorf("failed to remove reaction: %w", err)
	}
	return unmarshalMessage(attrs)
}

// UnreadInThread returns every message in a thread the user has not
// acknowledged yet. The sender never counts as unread for their own
// messages because readBy is seeded with the sender at create time.
func (s *DynamoMessageStore) UnreadInThread(ctx context.Context, threadID, userID string) ([]models.Message, error) {
	keyCondition := "threadId = :threadId"
	filter := "NOT contains(readBy, :userId)"
	expressionValues := map[string]types.AttributeValue{
		":threadId": &types.AttributeValueMemberS{Value: threadID},
		":userId":   &types.AttributeValueMemberS{Value: userID},
	}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, expressionValues, nil, filter, 0, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unread messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse unread messages: %w", err)
	}
	return messages, nil
}

// CountUnreadInThread counts the user's unread messages in one thread.
func (s *DynamoMessageStore) CountUnreadInThread(ctx context.Context, threadID, userID string) (int, error) {
	keyCondition := "threadId = :threadId"
	filter := "NOT contains(readBy, :userId)"
	expressionValues := map[string]types.AttributeValue{
		":threadId": &types.AttributeValueMemberS{Value: threadID},
		":userId":   &types.AttributeValueMemberS{Value: userID},
	}

	return s.Dynamo.QueryCount(ctx, models.MessagesTable, "", keyCondition, expressionValues, nil, filter)
}

// SentDirect returns all direct messages the user has sent, via the
// SenderIndex GSI.
func (s *DynamoMessageStore) SentDirect(ctx context.Context, userID string) ([]models.Message, error) {
	keyCondition := "senderId = :userId"
	filter := "recipientType = :user"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
		":user":   &types.AttributeValueMemberS{Value: string(models.RecipientUser)},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessagesTable, models.SenderIndex, keyCondition, expressionValues, nil, filter, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sent messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse sent messages: %w", err)
	}
	return messages, nil
}

// ReceivedDirect returns all direct messages addressed to the user, via the
// RecipientIndex GSI.
func (s *DynamoMessageStore) ReceivedDirect(ctx context.Context, userID string) ([]models.Message, error) {
	keyCondition := "recipientId = :userId"
	filter := "recipientType = :user"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
		":user":   &types.AttributeValueMemberS{Value: string(models.RecipientUser)},
	}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MessagesTable, models.RecipientIndex, keyCondition, expressionValues, nil, filter, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch received messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse received messages: %w", err)
	}
	return messages, nil
}

// CountUnreadDirect counts direct messages addressed to the user that the
// user has not read.
func (s *DynamoMessageStore) CountUnreadDirect(ctx context.Context, userID string) (int, error) {
	keyCondition := "recipientId = :userId"
	filter := "recipientType = :user AND NOT contains(readBy, :userId)"
	expressionValues := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
		":user":   &types.AttributeValueMemberS{Value: string(models.RecipientUser)},
	}

	return s.Dynamo.QueryCount(ctx, models.MessagesTable, models.RecipientIndex, keyCondition, expressionValues, nil, filter)
}

func unmarshalMessage(attrs map[string]types.AttributeValue) (*models.Message, error) {
	var message models.Message
	if err := attributevalue.UnmarshalMap(attrs, &message); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if message.MessageID == "" {
		return nil, errors.New("update returned no message attributes")
	}
	return &message, nil
}
