package services

import (
	stderrors "errors"
	"log/slog"

	"github.com/samber/lo"

	"chat-server/domain"
	"chat-server/errors"
	"chat-server/repositories"
)

type IChatService interface {
	AccessChat(requesterID, targetUserID string) (domain.Chat, error)
	FetchChats(requesterID string) ([]domain.Chat, error)
	CreateGroup(requesterID, name string, userIDs []string) (domain.Chat, error)
	RenameGroup(requesterID, chatID, name string) (domain.Chat, error)
	AddToGroup(requesterID, chatID, userID string) (domain.Chat, error)
	RemoveFromGroup(requesterID, chatID, userID string) (domain.Chat, error)
}

type ChatService struct {
	chatRepository    repositories.IChatRepository
	userRepository    repositories.IUserRepository
	messageRepository repositories.IMessageRepository
	log               *slog.Logger
}

func NewChatService(chats repositories.IChatRepository, users repositories.IUserRepository,
	messages repositories.IMessageRepository, log *slog.Logger) *ChatService {
	return &ChatService{
		chatRepository:    chats,
		userRepository:    users,
		messageRepository: messages,
		log:               log,
	}
}

// AccessChat returns the one-to-one chat between the requester and the
// target user, creating it on first contact.
func (s *ChatService) AccessChat(requesterID, targetUserID string) (domain.Chat, error) {
	if targetUserID == "" {
		return domain.Chat{}, errors.ErrMissingFields
	}

	// The target must exist before a chat shell is created for it.
	if _, err := s.userRepository.GetUserByID(targetUserID); err != nil {
		return domain.Chat{}, err
	}

	chat, found, err := s.chatRepository.FindDirectChat(requesterID, targetUserID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !found {
		chat, err = s.chatRepository.CreateChat(repositories.Chat{
			Name:    "sender",
			IsGroup: false,
			UserIDs: []string{requesterID, targetUserID},
		})
		if err != nil {
			return domain.Chat{}, err
		}
	}
	return s.populate(chat)
}

// FetchChats returns every chat the requester participates in, most recently
// updated first, with participants and latest message populated.
func (s *ChatService) FetchChats(requesterID string) ([]domain.Chat, error) {
	chats, err := s.chatRepository.GetChatsForUser(requesterID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Chat, 0, len(chats))
	for _, chat := range chats {
		populated, err := s.populate(chat)
		if err != nil {
			return nil, err
		}
		result = append(result, populated)
	}
	return result, nil
}

// CreateGroup creates a group chat with the requester plus at least two
// other users.
func (s *ChatService) CreateGroup(requesterID, name string, userIDs []string) (domain.Chat, error) {
	if name == "" || len(userIDs) < 2 {
		return domain.Chat{}, errors.ErrMissingFields
	}

	members := lo.Uniq(append(userIDs, requesterID))
	chat, err := s.chatRepository.CreateChat(repositories.Chat{
		Name:         name,
		IsGroup:      true,
		UserIDs:      members,
		GroupAdminID: requesterID,
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return s.populate(chat)
}

func (s *ChatService) RenameGroup(requesterID, chatID, name string) (domain.Chat, error) {
	if name == "" {
		return domain.Chat{}, errors.ErrMissingFields
	}
	return s.mutateGroup(requesterID, chatID, func(chat *repositories.Chat) {
		chat.Name = name
	})
}

func (s *ChatService) AddToGroup(requesterID, chatID, userID string) (domain.Chat, error) {
	if _, err := s.userRepository.GetUserByID(userID); err != nil {
		return domain.Chat{}, err
	}
	return s.mutateGroup(requesterID, chatID, func(chat *repositories.Chat) {
		if !lo.Contains(chat.UserIDs, userID) {
			chat.UserIDs = append(chat.UserIDs, userID)
		}
	})
}

func (s *ChatService) RemoveFromGroup(requesterID, chatID, userID string) (domain.Chat, error) {
	return s.mutateGroup(requesterID, chatID, func(chat *repositories.Chat) {
		chat.UserIDs = lo.Without(chat.UserIDs, userID)
	})
}

// mutateGroup loads a group chat, checks the requester is a participant,
// applies the mutation and persists. Any participant may mutate.
func (s *ChatService) mutateGroup(requesterID, chatID string, mutate func(*repositories.Chat)) (domain.Chat, error) {
	chat, err := s.chatRepository.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.IsGroup {
		return domain.Chat{}, errors.ErrNotFound
	}
	if !lo.Contains(chat.UserIDs, requesterID) {
		return domain.Chat{}, errors.ErrNotParticipant
	}

	mutate(&chat)
	if err := s.chatRepository.UpdateChat(chat); err != nil {
		return domain.Chat{}, err
	}

	// Re-read for the fresh UpdatedAt before population.
	chat, err = s.chatRepository.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	return s.populate(chat)
}

// populate resolves participant IDs into user documents and attaches the
// latest message of the chat.
func (s *ChatService) populate(chat repositories.Chat) (domain.Chat, error) {
	users, err := s.userRepository.GetUsersByIDs(chat.UserIDs)
	if err != nil {
		return domain.Chat{}, err
	}

	populated := domain.Chat{
		ID:        chat.ID,
		Name:      chat.Name,
		IsGroup:   chat.IsGroup,
		UpdatedAt: chat.UpdatedAt,
		Users: lo.Map(users, func(user repositories.User, _ int) domain.User {
			return toDomainUser(user)
		}),
	}

	if chat.GroupAdminID != "" {
		if admin, err := s.userRepository.GetUserByID(chat.GroupAdminID); err == nil {
			adminUser := toDomainUser(admin)
			populated.GroupAdmin = &adminUser
		}
	}

	latest, found, err := s.messageRepository.LatestMessage(chat.ID)
	if err != nil {
		return domain.Chat{}, err
	}
	if found {
		sender, err := s.userRepository.GetUserByID(latest.SenderID)
		if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
			return domain.Chat{}, err
		}
		populated.LatestMessage = &domain.Message{
			ID:        latest.ID.String(),
			Sender:    toDomainUser(sender),
			Content:   latest.Content,
			Lang:      latest.Lang,
			CreatedAt: latest.At,
		}
	}
	return populated, nil
}
