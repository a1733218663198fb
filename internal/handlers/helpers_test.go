package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pliu/taskchat/internal/agent"
	"github.com/pliu/taskchat/internal/auth"
	"github.com/pliu/taskchat/internal/middleware"
	"github.com/pliu/taskchat/internal/models"
	"github.com/pliu/taskchat/internal/store/sqlstore"
	"github.com/pliu/taskchat/internal/tasks"
)

type fakeCompleter struct {
	responses []openai.ChatCompletionResponse
	err       error
	requests  []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type testEnv struct {
	router    *mux.Router
	store     *sqlstore.SQLStore
	completer *fakeCompleter
}

// newTestEnv wires the routes the way main does, with an in-memory store and
// a fake model provider.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	service := tasks.NewService(st)
	completer := &fakeCompleter{}

	authHandler := &AuthHandler{Store: st, Tokens: tokens}
	taskHandler := &TaskHandler{Service: service}
	chatHandler := &ChatHandler{Store: st, Service: service, Agent: agent.New(completer, "test-model")}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(tokens, st))
	protected.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	protected.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	protected.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Get).Methods("GET")
	protected.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Update).Methods("PUT")
	protected.HandleFunc("/tasks/{id:[0-9]+}/toggle", taskHandler.Toggle).Methods("PATCH")
	protected.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/chat", chatHandler.Chat).Methods("POST")

	return &testEnv{router: r, store: st, completer: completer}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

// register creates a user through the API and returns the user and the auth
// cookies issued with the 201.
func (env *testEnv) register(t *testing.T, email, password string) (*models.User, []*http.Cookie) {
	t.Helper()
	rr := env.do(t, "POST", "/api/auth/register", Credentials{Email: email, Password: password}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rr.Code, rr.Body.String())
	}
	var user models.User
	if err := json.NewDecoder(rr.Body).Decode(&user); err != nil {
		t.Fatal(err)
	}
	return &user, rr.Result().Cookies()
}

func decodeTask(t *testing.T, rr *httptest.ResponseRecorder) *models.Task {
	t.Helper()
	var task models.Task
	if err := json.NewDecoder(rr.Body).Decode(&task); err != nil {
		t.Fatalf("Failed to decode task: %v", err)
	}
	return &task
}
