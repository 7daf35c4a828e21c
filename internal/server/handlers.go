// ABOUTME: HTTP handlers for the auth and chat endpoints
// ABOUTME: Decodes JSON requests, delegates to services, and shapes responses

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"chatrelay/internal/identity"
	"chatrelay/internal/session"
)

// RegisterResponse is the JSON response for POST /auth/register.
type RegisterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResponse is the JSON response for POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// CreateChatResponse is the JSON response for POST /chats/new.
type CreateChatResponse struct {
	ChatID    string    `json:"chatId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatSummaryResponse is one element of the GET /chats response.
type ChatSummaryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageResponse is one message in a full chat view.
type MessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatResponse is the JSON response for GET /chats/{id}.
type ChatResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Messages  []MessageResponse `json:"messages"`
}

// SendMessageRequest is the JSON request body for POST /chats/message.
type SendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`

	// Credential is forwarded to the inference engine untouched.
	Credential string `json:"credential,omitempty"`
}

// SendMessageResponse is the JSON response for POST /chats/message.
type SendMessageResponse struct {
	Response string `json:"response"`
}

// DeleteChatResponse is the JSON response for DELETE /chats/{id}.
type DeleteChatResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.auth.Register(r.Context(), &req)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, RegisterResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req identity.LoginRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.auth.Login(r.Context(), &req)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	ownerID := identity.UserFromContext(r.Context())

	chat, err := s.sessions.CreateChat(r.Context(), ownerID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, CreateChatResponse{
		ChatID:    chat.ID,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
	})
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	ownerID := identity.UserFromContext(r.Context())

	chats, err := s.sessions.ListChats(r.Context(), ownerID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	response := make([]ChatSummaryResponse, 0, len(chats))
	for _, c := range chats {
		response = append(response, ChatSummaryResponse{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	ownerID := identity.UserFromContext(r.Context())
	chatID := r.PathValue("id")

	chat, err := s.sessions.LoadChat(r.Context(), chatID, ownerID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	messages := make([]MessageResponse, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		messages = append(messages, MessageResponse{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, ChatResponse{
		ID:        chat.ID,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
		Messages:  messages,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ownerID := identity.UserFromContext(r.Context())

	var req SendMessageRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.sessions.SendMessage(r.Context(), &session.SendRequest{
		ChatID:     req.ChatID,
		OwnerID:    ownerID,
		Message:    req.Message,
		Credential: req.Credential,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SendMessageResponse{Response: reply})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	ownerID := identity.UserFromContext(r.Context())
	chatID := r.PathValue("id")

	if err := s.sessions.DeleteChat(r.Context(), chatID, ownerID); err != nil {
		s.serviceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, DeleteChatResponse{Success: true})
}

// decodeJSON decodes a JSON request body, rejecting malformed input.
func decodeJSON(r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
