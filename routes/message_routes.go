package routes

import (
	"projecthub_server/controllers"
	"projecthub_server/middleware"
	"projecthub_server/services"

	"github.com/gorilla/mux"
)

// RegisterMessageRoutes sets up routes for messaging under /api/messages.
// Literal segments (conversations, unread, all, team, project) are
// registered before the {recipientId}/{messageId} wildcards so mux matches
// them first.
func RegisterMessageRoutes(
	r *mux.Router,
	messageService *services.MessageService,
	conversationService *services.ConversationService,
	readStateService *services.ReadStateService,
	reactionService *services.ReactionService,
	directory services.Directory,
) {
	controller := controllers.NewMessageController(messageService, conversationService, readStateService, reactionService, directory)

	messageRouter := r.PathPrefix("/api/messages").Subrouter()
	messageRouter.Use(middleware.Auth(directory))

	messageRouter.HandleFunc("/conversations", controller.HandleGetConversations).Methods("GET")
	messageRouter.HandleFunc("/unread/count", controller.HandleGetUnreadCount).Methods("GET")
	messageRouter.HandleFunc("/all/read", controller.HandleMarkAllRead).Methods("PUT")

	messageRouter.HandleFunc("/team/{teamId}", controller.HandleSendTeamMessage).Methods("POST")
	messageRouter.HandleFunc("/team/{teamId}", controller.HandleGetTeamMessages).Methods("GET")
	messageRouter.HandleFunc("/project/{projectId}", controller.HandleSendProjectMessage).Methods("POST")
	messageRouter.HandleFunc("/project/{projectId}", controller.HandleGetProjectMessages).Methods("GET")

	messageRouter.HandleFunc("", controller.HandleSendMessage).Methods("POST")
	messageRouter.HandleFunc("/{recipientId}/read", controller.HandleMarkThreadRead).Methods("PUT")
	messageRouter.HandleFunc("/{messageId}/reaction", controller.HandleAddReaction).Methods("POST")
	messageRouter.HandleFunc("/{messageId}/reaction", controller.HandleRemoveReaction).Methods("DELETE")
	messageRouter.HandleFunc("/{messageId}", controller.HandleUpdateMessage).Methods("PUT")
	messageRouter.HandleFunc("/{messageId}", controller.HandleDeleteMessage).Methods("DELETE")
	messageRouter.HandleFunc("/{recipientId}", controller.HandleGetThread).Methods("GET")
}
