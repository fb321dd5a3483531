//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-server/errors"
)

type IChatRepository interface {
	CreateChat(chat Chat) (Chat, error)
	GetChat(id string) (Chat, error)
	UpdateChat(chat Chat) error
	FindDirectChat(userA, userB string) (Chat, bool, error)
	GetChatsForUser(userID string) ([]Chat, error)
}

// Chat is the repository-level conversation record. Participants are stored
// as IDs only; population with full user documents happens in the services.
type Chat struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	IsGroup      bool      `json:"is_group"`
	UserIDs      []string  `json:"user_ids"`
	GroupAdminID string    `json:"group_admin_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChatRepository persists chats in BadgerDB under "chat:<uuid>". Membership
// queries are prefix scans; the chat population is small relative to the
// message volume, so a secondary index is not worth its bookkeeping here.
type ChatRepository struct {
	db *badger.DB
}

func NewChatRepository(db *badger.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (c *ChatRepository) CreateChat(chat Chat) (Chat, error) {
	chat.ID = uuid.NewString()
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	data, err := json.Marshal(chat)
	if err != nil {
		return Chat{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("chat:"+chat.ID), data)
	})
	if err != nil {
		return Chat{}, err
	}
	return chat, nil
}

func (c *ChatRepository) GetChat(id string) (Chat, error) {
	var chat Chat
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("chat:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &chat)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return Chat{}, errors.ErrNotFound
	}
	if err != nil {
		return Chat{}, err
	}
	return chat, nil
}

func (c *ChatRepository) UpdateChat(chat Chat) error {
	chat.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte("chat:" + chat.ID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrNotFound
			}
			return err
		}
		return txn.Set([]byte("chat:"+chat.ID), data)
	})
}

// FindDirectChat returns the existing one-to-one chat between two users, if
// any. Direct chats are unique per user pair by construction in the service.
func (c *ChatRepository) FindDirectChat(userA, userB string) (Chat, bool, error) {
	chats, err := c.scan(func(chat Chat) bool {
		return !chat.IsGroup &&
			lo.Contains(chat.UserIDs, userA) &&
			lo.Contains(chat.UserIDs, userB)
	})
	if err != nil {
		return Chat{}, false, err
	}
	if len(chats) == 0 {
		return Chat{}, false, nil
	}
	return chats[0], true, nil
}

// GetChatsForUser returns every chat the user participates in, most recently
// updated first.
func (c *ChatRepository) GetChatsForUser(userID string) ([]Chat, error) {
	chats, err := c.scan(func(chat Chat) bool {
		return lo.Contains(chat.UserIDs, userID)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (c *ChatRepository) scan(keep func(Chat) bool) ([]Chat, error) {
	var chats []Chat
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("chat:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var chat Chat
				if err := json.Unmarshal(val, &chat); err != nil {
					return err
				}
				if keep(chat) {
					chats = append(chats, chat)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}
