package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/taskchat/internal/agent"
	"github.com/pliu/taskchat/internal/auth"
	"github.com/pliu/taskchat/internal/config"
	"github.com/pliu/taskchat/internal/handlers"
	"github.com/pliu/taskchat/internal/middleware"
	"github.com/pliu/taskchat/internal/store/sqlstore"
	"github.com/pliu/taskchat/internal/tasks"
	"github.com/pliu/taskchat/internal/ws"
)

var addr = flag.String("addr", ":8080", "http service address")

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := sqlstore.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	service := tasks.NewService(store)

	hub := ws.NewHub()
	go hub.Run()

	todoAgent := agent.New(agent.NewClient(agent.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	}), cfg.OpenAIModel)

	authHandler := &handlers.AuthHandler{Store: store, Tokens: tokens}
	taskHandler := &handlers.TaskHandler{Service: service, Hub: hub}
	chatHandler := &handlers.ChatHandler{Store: store, Service: service, Agent: todoAgent}

	r := mux.NewRouter()
	r.Use(middleware.Logging)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(tokens, store))
	protected.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	protected.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	protected.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Get).Methods("GET")
	protected.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Update).Methods("PUT")
	protected.HandleFunc("/tasks/{id:[0-9]+}/toggle", taskHandler.Toggle).Methods("PATCH")
	protected.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/chat", chatHandler.Chat).Methods("POST")
	protected.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r, middleware.UserID(r))
	}).Methods("GET")

	log.Println("Starting server on", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}
