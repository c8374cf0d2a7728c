package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"projecthub_server/middleware"
	"projecthub_server/models"
	"projecthub_server/services"

	"github.com/gorilla/mux"
)

// MessageController wires the messaging services to the HTTP surface.
type MessageController struct {
	Messages      *services.MessageService
	Conversations *services.ConversationService
	ReadState     *services.ReadStateService
	Reactions     *services.ReactionService
	Directory     services.Directory
}

// NewMessageController initializes the message controller
func NewMessageController(
	messages *services.MessageService,
	conversations *services.ConversationService,
	readState *services.ReadStateService,
	reactions *services.ReactionService,
	directory services.Directory,
) *MessageController {
	return &MessageController{
		Messages:      messages,
		Conversations: conversations,
		ReadState:     readState,
		Reactions:     reactions,
		Directory:     directory,
	}
}

// HandleSendMessage - send a direct message to another user
func (c *MessageController) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RecipientID string `json:"recipientId"`
		Content     string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	message, err := c.Messages.SendDirect(r.Context(), middleware.UserIDFromContext(r), request.RecipientID, request.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// HandleSendTeamMessage - send a message to a team's shared inbox
func (c *MessageController) HandleSendTeamMessage(w http.ResponseWriter, r *http.Request) {
	c.sendEntityMessage(w, r, models.RecipientTeam, mux.Vars(r)["teamId"])
}

// HandleSendProjectMessage - send a message to a project's shared inbox
func (c *MessageController) HandleSendProjectMessage(w http.ResponseWriter, r *http.Request) {
	c.sendEntityMessage(w, r, models.RecipientProject, mux.Vars(r)["projectId"])
}

func (c *MessageController) sendEntityMessage(w http.ResponseWriter, r *http.Request, kind models.RecipientType, entityID string) {
	var request struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	message, err := c.Messages.SendToEntity(r.Context(), middleware.UserIDFromContext(r), kind, entityID, request.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, message)
}

// HandleGetConversations - aggregated conversation list for the caller
func (c *MessageController) HandleGetConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := c.Conversations.ListConversations(r.Context(), middleware.UserIDFromContext(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}
	respondJSON(w, http.StatusOK, conversations)
}

// HandleGetThread - paginated thread for an untyped recipient id. The id is
// probed as user, then team, then project.
func (c *MessageController) HandleGetThread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r)
	recipientID := mux.Vars(r)["recipientId"]
	page, limit := pagination(r)

	handle, err := c.Directory.ResolveAny(r.Context(), recipientID)
	if err != nil {
		respondError(w, err)
		return
	}

	var messages []models.ThreadMessage
	if handle.Kind == models.RecipientUser {
		messages, err = c.Messages.DirectThread(r.Context(), userID, handle.ID, page, limit)
	} else {
		messages, err = c.Messages.EntityThread(r.Context(), userID, handle.Kind, handle.ID, page, limit)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// HandleGetTeamMessages - paginated team thread
func (c *MessageController) HandleGetTeamMessages(w http.ResponseWriter, r *http.Request) {
	c.getEntityThread(w, r, models.RecipientTeam, mux.Vars(r)["teamId"])
}

// HandleGetProjectMessages - paginated project thread
func (c *MessageController) HandleGetProjectMessages(w http.ResponseWriter, r *http.Request) {
	c.getEntityThread(w, r, models.RecipientProject, mux.Vars(r)["projectId"])
}

func (c *MessageController) getEntityThread(w http.ResponseWriter, r *http.Request, kind models.RecipientType, entityID string) {
	page, limit := pagination(r)
	messages, err := c.Messages.EntityThread(r.Context(), middleware.UserIDFromContext(r), kind, entityID, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// HandleUpdateMessage - edit a message's content (sender only)
func (c *MessageController) HandleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	message, err := c.Messages.EditMessage(r.Context(), middleware.UserIDFromContext(r), mux.Vars(r)["messageId"], request.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, message)
}

// HandleDeleteMessage - delete a message (sender only)
func (c *MessageController) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	err := c.Messages.DeleteMessage(r.Context(), middleware.UserIDFromContext(r), mux.Vars(r)["messageId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Message deleted successfully"})
}

// HandleAddReaction - add or replace the caller's reaction on a message
func (c *MessageController) HandleAddReaction(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Reaction string `json:"reaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "Invalid request body"}`, http.StatusBadRequest)
		return
	}

	message, err := c.Reactions.AddReaction(r.Context(), middleware.UserIDFromContext(r), mux.Vars(r)["messageId"], request.Reaction)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, message)
}

// HandleRemoveReaction - remove the caller's reaction from a message
func (c *MessageController) HandleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	message, err := c.Reactions.RemoveReaction(r.Context(), middleware.UserIDFromContext(r), mux.Vars(r)["messageId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, message)
}

// HandleMarkThreadRead - mark one thread or entity inbox read
func (c *MessageController) HandleMarkThreadRead(w http.ResponseWriter, r *http.Request) {
	err := c.ReadState.MarkThreadRead(r.Context(), middleware.UserIDFromContext(r), mux.Vars(r)["recipientId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Messages marked as read"})
}

// HandleMarkAllRead - mark every thread and inbox read for the caller
func (c *MessageController) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := c.ReadState.MarkAllRead(r.Context(), middleware.UserIDFromContext(r)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "All messages marked as read"})
}

// HandleGetUnreadCount - unread totals split by recipient kind
func (c *MessageController) HandleGetUnreadCount(w http.ResponseWriter, r *http.Request) {
	counts, err := c.ReadState.UnreadCounts(r.Context(), middleware.UserIDFromContext(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func pagination(r *http.Request) (page, limit int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50 // Default to 50 messages
	}
	return page, limit
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps the service failure taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a generic 500; the request failed but
// the process carries on.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyContent), errors.Is(err, services.ErrInvalidRecipient):
		http.Error(w, `{"error": "`+err.Error()+`"}`, http.StatusBadRequest)
	case errors.Is(err, services.ErrNotAuthorized):
		http.Error(w, `{"error": "Not authorized"}`, http.StatusForbidden)
	case errors.Is(err, services.ErrMessageNotFound), errors.Is(err, services.ErrRecipientNotFound):
		http.Error(w, `{"error": "`+err.Error()+`"}`, http.StatusNotFound)
	default:
		log.Printf("❌ Request failed: %v", err)
		http.Error(w, `{"error": "Internal server error"}`, http.StatusInternalServerError)
	}
}
