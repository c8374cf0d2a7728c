package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"projecthub_server/models"

	"github.com/google/uuid"
)

// memStore is an in-memory MessageStore with the same per-field atomicity
// the DynamoDB implementation gets from update expressions.
type memStore struct {
	mu       sync.Mutex
	messages map[string]*models.Message
}

func newMemStore() *memStore {
	return &memStore{messages: map[string]*models.Message{}}
}

func copyMessage(m *models.Message) *models.Message {
	cp := *m
	cp.ReadBy = append([]string(nil), m.ReadBy...)
	cp.Reactions = map[string]string{}
	for k, v := range m.Reactions {
		cp.Reactions[k] = v
	}
	return &cp
}

func (s *memStore) Put(ctx context.Context, message models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message.Reactions == nil {
		message.Reactions = map[string]string{}
	}
	s.messages[message.MessageID] = copyMessage(&message)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, messageID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return copyMessage(msg), nil
}

func (s *memStore) threadMessages(threadID string) []*models.Message {
	var out []*models.Message
	for _, msg := range s.messages {
		if msg.ThreadID == threadID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

func (s *memStore) Thread(ctx context.Context, threadID string, page, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	all := s.threadMessages(threadID)
	skip := (page - 1) * limit
	var out []models.Message
	for i := skip; i < len(all) && i < skip+limit; i++ {
		out = append(out, *copyMessage(all[i]))
	}
	return out, nil
}

func (s *memStore) LastMessage(ctx context.Context, threadID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.threadMessages(threadID)
	if len(all) == 0 {
		return nil, nil
	}
	return copyMessage(all[0]), nil
}

func (s *memStore) UpdateContent(ctx context.Context, msg *models.Message, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.messages[msg.MessageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	stored.Content = content
	stored.Metadata.Edited = true
	stored.UpdatedAt = models.Timestamp(time.Now())
	return copyMessage(stored), nil
}

func (s *memStore) Delete(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, msg.MessageID)
	return nil
}

func (s *memStore) AddReadReceipt(ctx context.Context, msg *models.Message, userID string, alsoStatusRead bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.messages[msg.MessageID]
	if !ok {
		return ErrMessageNotFound
	}
	if !stored.IsReadBy(userID) {
		stored.ReadBy = append(stored.ReadBy, userID)
	}
	if alsoStatusRead {
		stored.Status = models.StatusRead
	}
	stored.UpdatedAt = models.Timestamp(time.Now())
	return nil
}

func (s *memStore) SetReaction(ctx context.Context, msg *models.Message, userID, emoji string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.messages[msg.MessageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	if stored.Reactions == nil {
		stored.Reactions = map[string]string{}
	}
	stored.Reactions[userID] = emoji
	stored.UpdatedAt = models.Timestamp(time.Now())
	return copyMessage(stored), nil
}

func (s *memStore) RemoveReaction(ctx context.Context, msg *models.Message, userID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.messages[msg.MessageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	delete(stored.Reactions, userID)
	stored.UpdatedAt = models.Timestamp(time.Now())
	return copyMessage(stored), nil
}

func (s *memStore) UnreadInThread(ctx context.Context, threadID, userID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.threadMessages(threadID) {
		if !msg.IsReadBy(userID) {
			out = append(out, *copyMessage(msg))
		}
	}
	return out, nil
}

func (s *memStore) CountUnreadInThread(ctx context.Context, threadID, userID string) (int, error) {
	unread, err := s.UnreadInThread(ctx, threadID, userID)
	return len(unread), err
}

func (s *memStore) SentDirect(ctx context.Context, userID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.Type == models.RecipientUser && msg.SenderID == userID {
			out = append(out, *copyMessage(msg))
		}
	}
	return out, nil
}

func (s *memStore) ReceivedDirect(ctx context.Context, userID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.Type == models.RecipientUser && msg.RecipientID == userID {
			out = append(out, *copyMessage(msg))
		}
	}
	return out, nil
}

func (s *memStore) CountUnreadDirect(ctx context.Context, userID string) (int, error) {
	received, err := s.ReceivedDirect(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range received {
		if !received[i].IsReadBy(userID) {
			n++
		}
	}
	return n, nil
}

// memDirectory is an in-memory Directory.
type memDirectory struct {
	users    map[string]models.UserProfile
	teams    map[string]models.Team
	projects map[string]models.Project
	sessions map[string]models.Session
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		users:    map[string]models.UserProfile{},
		teams:    map[string]models.Team{},
		projects: map[string]models.Project{},
		sessions: map[string]models.Session{},
	}
}

func (d *memDirectory) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, ok := d.users[userID]
	if !ok {
		return nil, ErrRecipientNotFound
	}
	return &profile, nil
}

func (d *memDirectory) GetSession(ctx context.Context, token string) (*models.Session, error) {
	session, ok := d.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (d *memDirectory) Resolve(ctx context.Context, kind models.RecipientType, id string) (*models.RecipientHandle, error) {
	switch kind {
	case models.RecipientUser:
		profile, ok := d.users[id]
		if !ok {
			return nil, ErrRecipientNotFound
		}
		return &models.RecipientHandle{ID: id, Kind: kind, Name: profile.Name, Avatar: profile.Avatar}, nil
	case models.RecipientTeam:
		team, ok := d.teams[id]
		if !ok {
			return nil, ErrRecipientNotFound
		}
		return &models.RecipientHandle{ID: id, Kind: kind, Name: team.Name, Avatar: team.Avatar, Members: team.Members}, nil
	case models.RecipientProject:
		project, ok := d.projects[id]
		if !ok {
			return nil, ErrRecipientNotFound
		}
		return &models.RecipientHandle{ID: id, Kind: kind, Name: project.Name, Avatar: project.Avatar, Members: project.Members}, nil
	}
	return nil, ErrInvalidRecipient
}

func (d *memDirectory) ResolveAny(ctx context.Context, id string) (*models.RecipientHandle, error) {
	for _, kind := range []models.RecipientType{models.RecipientUser, models.RecipientTeam, models.RecipientProject} {
		handle, err := d.Resolve(ctx, kind, id)
		if err == nil {
			return handle, nil
		}
	}
	return nil, ErrRecipientNotFound
}

func (d *memDirectory) IsMember(ctx context.Context, userID string, kind models.RecipientType, entityID string) (bool, error) {
	handle, err := d.Resolve(ctx, kind, entityID)
	if err != nil {
		return false, nil
	}
	for _, member := range handle.Members {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}

func (d *memDirectory) TeamsFor(ctx context.Context, userID string) ([]models.Team, error) {
	var out []models.Team
	for _, team := range d.teams {
		for _, member := range team.Members {
			if member == userID {
				out = append(out, team)
				break
			}
		}
	}
	return out, nil
}

func (d *memDirectory) ProjectsFor(ctx context.Context, userID string) ([]models.Project, error) {
	var out []models.Project
	for _, project := range d.projects {
		for _, member := range project.Members {
			if member == userID {
				out = append(out, project)
				break
			}
		}
	}
	return out, nil
}

// recordingBroadcaster captures pushes for assertions.
type recordedEvent struct {
	UserID  string
	Event   string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) EmitToUser(userID, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{UserID: userID, Event: event, Payload: payload})
}

func (b *recordingBroadcaster) eventsFor(userID, event string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.UserID == userID && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the engines against the in-memory store and directory.
type testEnv struct {
	store         *memStore
	directory     *memDirectory
	broadcast     *recordingBroadcaster
	guard         *AuthGuard
	messages      *MessageService
	reactions     *ReactionService
	readState     *ReadStateService
	conversations *ConversationService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	directory := newMemDirectory()
	broadcast := &recordingBroadcaster{}
	guard := &AuthGuard{Directory: directory}
	messages := &MessageService{Store: store, Directory: directory, Guard: guard, Broadcast: broadcast}

	return &testEnv{
		store:         store,
		directory:     directory,
		broadcast:     broadcast,
		guard:         guard,
		messages:      messages,
		reactions:     &ReactionService{Store: store, Guard: guard, Messages: messages, Broadcast: broadcast},
		readState:     &ReadStateService{Store: store, Directory: directory, Guard: guard},
		conversations: &ConversationService{Store: store, Directory: directory},
	}
}

func (e *testEnv) addUser(id, name string) {
	e.directory.users[id] = models.UserProfile{UserID: id, Name: name}
}

func (e *testEnv) addTeam(id, name string, members ...string) {
	e.directory.teams[id] = models.Team{TeamID: id, Name: name, Members: members}
}

func (e *testEnv) addProject(id, name string, members ...string) {
	e.directory.projects[id] = models.Project{ProjectID: id, Name: name, Members: members}
}

// seedMessage writes a message straight into the store with a chosen
// creation time, bypassing the send path.
func (e *testEnv) seedMessage(sender, recipient string, kind models.RecipientType, content string, at time.Time) models.Message {
	stamp := models.Timestamp(at)
	msg := models.Message{
		ThreadID:    models.ThreadIDFor(sender, recipient, kind),
		CreatedAt:   stamp,
		MessageID:   uuid.New().String(),
		SenderID:    sender,
		RecipientID: recipient,
		Type:        kind,
		Content:     content,
		Status:      models.StatusSent,
		ReadBy:      []string{sender},
		Reactions:   map[string]string{},
		UpdatedAt:   stamp,
	}
	_ = e.store.Put(context.Background(), msg)
	return msg
}
