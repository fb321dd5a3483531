package services

import (
	"log/slog"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-server/domain"
	"chat-server/errors"
	"chat-server/moderation"
	"chat-server/repositories"
)

type IMessageService interface {
	Send(requesterID, chatID, content string) (domain.Message, error)
	List(requesterID, chatID string, cursor *string) ([]domain.Message, *string, error)
}

type MessageService struct {
	messageRepository repositories.IMessageRepository
	chatRepository    repositories.IChatRepository
	userRepository    repositories.IUserRepository
	moderator         moderation.Moderator
	log               *slog.Logger
}

func NewMessageService(messages repositories.IMessageRepository, chats repositories.IChatRepository,
	users repositories.IUserRepository, moderator moderation.Moderator, log *slog.Logger) *MessageService {
	return &MessageService{
		messageRepository: messages,
		chatRepository:    chats,
		userRepository:    users,
		moderator:         moderator,
		log:               log,
	}
}

// Send persists a message in the requester's chat and returns the fully
// populated document, the payload the client then emits as "new message" on
// its socket. Content passes through the moderation censor and is tagged
// with its detected language before hitting disk.
func (s *MessageService) Send(requesterID, chatID, content string) (domain.Message, error) {
	if chatID == "" || content == "" {
		return domain.Message{}, errors.ErrMissingFields
	}

	chat, err := s.chatRepository.GetChat(chatID)
	if err != nil {
		return domain.Message{}, err
	}
	if !lo.Contains(chat.UserIDs, requesterID) {
		return domain.Message{}, errors.ErrNotParticipant
	}

	sender, err := s.userRepository.GetUserByID(requesterID)
	if err != nil {
		return domain.Message{}, err
	}

	censored := s.moderator.Censor(content)
	langCode := whatlanggo.Detect(censored).Lang.Iso6391()

	message := repositories.DiskMessage{
		ID:       uuid.New(),
		ChatID:   chatID,
		SenderID: requesterID,
		Content:  censored,
		Lang:     langCode,
		At:       time.Now().UTC(),
	}
	if err := s.messageRepository.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}

	// Touch the chat so FetchChats orders it first.
	if err := s.chatRepository.UpdateChat(chat); err != nil {
		s.log.Warn("Failed to touch chat after message", "chat_id", chatID, "error", err)
	}

	populatedChat, err := s.populateChat(chat)
	if err != nil {
		return domain.Message{}, err
	}

	return domain.Message{
		ID:        message.ID.String(),
		Sender:    toDomainUser(sender),
		Content:   message.Content,
		Lang:      message.Lang,
		Chat:      populatedChat,
		CreatedAt: message.At,
	}, nil
}

// List returns a chat's messages in chronological order with a cursor for
// the next older page. Participant-only.
func (s *MessageService) List(requesterID, chatID string, cursor *string) ([]domain.Message, *string, error) {
	chat, err := s.chatRepository.GetChat(chatID)
	if err != nil {
		return nil, nil, err
	}
	if !lo.Contains(chat.UserIDs, requesterID) {
		return nil, nil, errors.ErrNotParticipant
	}

	diskMessages, nextCursor, err := s.messageRepository.GetMessages(chatID, cursor)
	if err != nil {
		return nil, nil, err
	}

	populatedChat, err := s.populateChat(chat)
	if err != nil {
		return nil, nil, err
	}

	senders := make(map[string]domain.User)
	messages := make([]domain.Message, 0, len(diskMessages))
	for _, disk := range diskMessages {
		sender, ok := senders[disk.SenderID]
		if !ok {
			record, err := s.userRepository.GetUserByID(disk.SenderID)
			if err == nil {
				sender = toDomainUser(record)
			}
			senders[disk.SenderID] = sender
		}
		messages = append(messages, domain.Message{
			ID:        disk.ID.String(),
			Sender:    sender,
			Content:   disk.Content,
			Lang:      disk.Lang,
			Chat:      populatedChat,
			CreatedAt: disk.At,
		})
	}
	return messages, nextCursor, nil
}

func (s *MessageService) populateChat(chat repositories.Chat) (domain.Chat, error) {
	users, err := s.userRepository.GetUsersByIDs(chat.UserIDs)
	if err != nil {
		return domain.Chat{}, err
	}
	return domain.Chat{
		ID:        chat.ID,
		Name:      chat.Name,
		IsGroup:   chat.IsGroup,
		UpdatedAt: chat.UpdatedAt,
		Users: lo.Map(users, func(user repositories.User, _ int) domain.User {
			return toDomainUser(user)
		}),
	}, nil
}
