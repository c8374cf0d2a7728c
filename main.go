package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"projecthub_server/routes"
	"projecthub_server/services"
	"projecthub_server/socket"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Realtime layer: per-user channels over Socket.IO
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket.IO server error: %v", err)
		}
	}()
	defer socketServer.Close()
	broadcaster := &socket.Broadcaster{Server: socketServer}

	// Initialize Services
	store := &services.DynamoMessageStore{Dynamo: dynamoService}
	directory := &services.DynamoDirectory{Dynamo: dynamoService}
	guard := &services.AuthGuard{Directory: directory}
	messageService := &services.MessageService{Store: store, Directory: directory, Guard: guard, Broadcast: broadcaster}
	conversationService := &services.ConversationService{Store: store, Directory: directory}
	readStateService := &services.ReadStateService{Store: store, Directory: directory, Guard: guard}
	reactionService := &services.ReactionService{Store: store, Guard: guard, Messages: messageService, Broadcast: broadcaster}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to ProjectHub")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Realtime endpoint
	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterMessageRoutes(r, messageService, conversationService, readStateService, reactionService, directory)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
