package httpapi

import (
	"net/http"
)

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

type messagePage struct {
	Messages   any     `json:"messages"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		var req sendMessageRequest
		if !decode(w, r, &req) {
			return nil, errHandled
		}
		return s.messageService.Send(requesterID, req.ChatID, req.Content)
	})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		chatID := r.PathValue("chatID")
		var cursor *string
		if raw := r.URL.Query().Get("cursor"); raw != "" {
			cursor = &raw
		}
		messages, nextCursor, err := s.messageService.List(requesterID, chatID, cursor)
		if err != nil {
			return nil, err
		}
		return messagePage{Messages: messages, NextCursor: nextCursor}, nil
	})
}
