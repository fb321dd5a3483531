package httpapi

import (
	"net/http"
)

type accessChatRequest struct {
	UserID string `json:"userId"`
}

type createGroupRequest struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

type renameGroupRequest struct {
	ChatID string `json:"chatId"`
	Name   string `json:"chatName"`
}

type groupMemberRequest struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

func (s *Server) handleAccessChat(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		var req accessChatRequest
		if !decode(w, r, &req) {
			return nil, errHandled
		}
		return s.chatService.AccessChat(requesterID, req.UserID)
	})
}

func (s *Server) handleFetchChats(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		return s.chatService.FetchChats(requesterID)
	})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		var req createGroupRequest
		if !decode(w, r, &req) {
			return nil, errHandled
		}
		return s.chatService.CreateGroup(requesterID, req.Name, req.Users)
	})
}

func (s *Server) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		var req renameGroupRequest
		if !decode(w, r, &req) {
			return nil, errHandled
		}
		return s.chatService.RenameGroup(requesterID, req.ChatID, req.Name)
	})
}

func (s *Server) handleAddToGroup(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		var req groupMemberRequest
		if !decode(w, r, &req) {
			return nil, errHandled
		}
		return s.chatService.AddToGroup(requesterID, req.ChatID, req.UserID)
	})
}

func (s *Server) handleRemoveFromGroup(w http.ResponseWriter, r *http.Request) {
	s.withRequester(w, r, func(requesterID string) (any, error) {
		var req groupMemberRequest
		if !decode(w, r, &req) {
			return nil, errHandled
		}
		return s.chatService.RemoveFromGroup(requesterID, req.ChatID, req.UserID)
	})
}
