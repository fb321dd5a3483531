package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-server/errors"
	"chat-server/mocks"
	"chat-server/moderation"
	"chat-server/repositories"
)

type messageServiceFixture struct {
	users    *mocks.MockIUserRepository
	chats    *mocks.MockIChatRepository
	messages *mocks.MockIMessageRepository
	svc      *MessageService
}

func newMessageServiceFixture(t *testing.T, censoredWords []string) messageServiceFixture {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	chats := mocks.NewMockIChatRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)

	moderator, err := moderation.NewModerator(censoredWords, '*')
	require.NoError(t, err)

	return messageServiceFixture{
		users:    users,
		chats:    chats,
		messages: messages,
		svc:      NewMessageService(messages, chats, users, moderator, slog.Default()),
	}
}

func TestMessageService_Send(t *testing.T) {
	senderID := "sender"
	chat := repositories.Chat{ID: "chat-1", UserIDs: []string{senderID, "peer"}}
	sender := repositories.User{ID: senderID, Name: "Sender"}

	t.Run("should persist and return the populated message", func(t *testing.T) {
		req := require.New(t)
		f := newMessageServiceFixture(t, nil)

		f.chats.EXPECT().GetChat("chat-1").Return(chat, nil)
		f.users.EXPECT().GetUserByID(senderID).Return(sender, nil)
		f.messages.EXPECT().
			StoreMessage(gomock.Any()).
			DoAndReturn(func(disk repositories.DiskMessage) error {
				req.Equal("chat-1", disk.ChatID)
				req.Equal(senderID, disk.SenderID)
				req.Equal("hello there", disk.Content)
				req.NotEqual(uuid.Nil, disk.ID)
				return nil
			})
		f.chats.EXPECT().UpdateChat(gomock.Any()).Return(nil)
		f.users.EXPECT().GetUsersByIDs(chat.UserIDs).
			Return([]repositories.User{sender, {ID: "peer"}}, nil)

		message, err := f.svc.Send(senderID, "chat-1", "hello there")

		req.NoError(err)
		req.Equal(senderID, message.Sender.ID)
		req.Equal("hello there", message.Content)
		req.Equal("chat-1", message.Chat.ID)
		req.Len(message.Chat.Users, 2)
		req.NotEmpty(message.Lang)
	})

	t.Run("should censor forbidden words before storing", func(t *testing.T) {
		req := require.New(t)
		f := newMessageServiceFixture(t, []string{"badger"})

		f.chats.EXPECT().GetChat("chat-1").Return(chat, nil)
		f.users.EXPECT().GetUserByID(senderID).Return(sender, nil)
		f.messages.EXPECT().
			StoreMessage(gomock.Any()).
			DoAndReturn(func(disk repositories.DiskMessage) error {
				req.Equal("the ****** bites", disk.Content)
				return nil
			})
		f.chats.EXPECT().UpdateChat(gomock.Any()).Return(nil)
		f.users.EXPECT().GetUsersByIDs(gomock.Any()).Return(nil, nil)

		message, err := f.svc.Send(senderID, "chat-1", "the badger bites")

		req.NoError(err)
		req.Equal("the ****** bites", message.Content)
	})

	t.Run("should refuse a sender outside the chat", func(t *testing.T) {
		req := require.New(t)
		f := newMessageServiceFixture(t, nil)

		f.chats.EXPECT().GetChat("chat-1").Return(chat, nil)
		f.messages.EXPECT().StoreMessage(gomock.Any()).Times(0)

		_, err := f.svc.Send("stranger", "chat-1", "let me in")

		req.ErrorIs(err, errors.ErrNotParticipant)
	})

	t.Run("should refuse empty content", func(t *testing.T) {
		req := require.New(t)
		f := newMessageServiceFixture(t, nil)

		_, err := f.svc.Send(senderID, "chat-1", "")

		req.ErrorIs(err, errors.ErrMissingFields)
	})

	t.Run("should still answer when touching the chat fails", func(t *testing.T) {
		req := require.New(t)
		f := newMessageServiceFixture(t, nil)

		f.chats.EXPECT().GetChat("chat-1").Return(chat, nil)
		f.users.EXPECT().GetUserByID(senderID).Return(sender, nil)
		f.messages.EXPECT().StoreMessage(gomock.Any()).Return(nil)
		f.chats.EXPECT().UpdateChat(gomock.Any()).Return(errors.ErrNotFound)
		f.users.EXPECT().GetUsersByIDs(gomock.Any()).Return(nil, nil)

		_, err := f.svc.Send(senderID, "chat-1", "hello")

		req.NoError(err)
	})
}

func TestMessageService_List(t *testing.T) {
	requesterID := "member"
	chat := repositories.Chat{ID: "chat-1", UserIDs: []string{requesterID, "peer"}}

	t.Run("should return messages with senders resolved once", func(t *testing.T) {
		req := require.New(t)
		f := newMessageServiceFixture(t, nil)

		at := time.Now().UTC()
		disk := []repositories.DiskMessage{
			{ID: uuid.New(), ChatID: "chat-1", SenderID: "peer", Content: "first", At: at},
			{ID: uuid.New(), ChatID: "chat-1", SenderID: "peer", Content: "second", At: at.Add(time.Minute)},
		}
		cursor := "next-page"

		f.chats.EXPECT().GetChat("chat-1").Return(chat, nil)
		f.messages.EXPECT().GetMessages("chat-1", nil).Return(disk, &cursor, nil)
		f.users.EXPECT().GetUsersByIDs(chat.UserIDs).Return(nil, nil)
		// One lookup despite two messages from the same sender
		f.users.EXPECT().GetUserByID("peer").Return(repositories.User{ID: "peer", Name: "Peer"}, nil).Times(1)

		messages, nextCursor, err := f.svc.List(requesterID, "chat-1", nil)

		req.NoError(err)
		req.Len(messages, 2)
		req.Equal("first", messages[0].Content)
		req.Equal("Peer", messages[1].Sender.Name)
		req.NotNil(nextCursor)
		req.Equal(cursor, *nextCursor)
	})

	t.Run("should refuse a non participant", func(t *testing.T) {
		req := require.New(t)
		f := newMessageServiceFixture(t, nil)

		f.chats.EXPECT().GetChat("chat-1").Return(chat, nil)
		f.messages.EXPECT().GetMessages(gomock.Any(), gomock.Any()).Times(0)

		_, _, err := f.svc.List("stranger", "chat-1", nil)

		req.ErrorIs(err, errors.ErrNotParticipant)
	})
}
