//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-server/errors"
)

type IUserRepository interface {
	CreateUser(user User) (User, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(id string) (User, error)
	GetUsersByIDs(ids []string) ([]User, error)
	SearchUsers(ctx context.Context, keyword, excludeID string) ([]User, error)
}

// User is the repository-level account record. PasswordHash stays in this
// layer; the services map to domain.User before anything leaves the process.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Pic          string    `json:"pic,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRepository persists accounts in BadgerDB and mirrors name/email into a
// Bluge index for case-insensitive substring search. Two keys per account:
//
//	user:id:<uuid>     -> full JSON record
//	user:email:<email> -> uuid
//
// The email key doubles as the uniqueness guard.
type UserRepository struct {
	db          *badger.DB
	index       *bluge.Writer
	log         *slog.Logger
	searchLimit int
}

func NewUserRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger, searchLimit int) *UserRepository {
	return &UserRepository{db: db, index: index, log: log, searchLimit: searchLimit}
}

func (u *UserRepository) CreateUser(user User) (User, error) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.Email = strings.ToLower(user.Email)

	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte("user:email:" + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set([]byte("user:id:"+user.ID), data)
	})
	if err != nil {
		return User{}, err
	}

	if err := u.indexUser(user); err != nil {
		// The record is already durable; a search-index failure only
		// degrades search until the next reindex.
		u.log.Warn("User indexing failed", "user_id", user.ID, "error", err)
	}
	return user, nil
}

// indexUser mirrors the searchable fields into Bluge. Values are lowercased
// at index time so wildcard queries stay case-insensitive.
func (u *UserRepository) indexUser(user User) error {
	doc := bluge.NewDocument(user.ID)
	doc.AddField(bluge.NewTextField("name", strings.ToLower(user.Name)))
	doc.AddField(bluge.NewTextField("email", strings.ToLower(user.Email)))
	return u.index.Update(doc.ID(), doc)
}

func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	var userID string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:email:" + strings.ToLower(email)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u.GetUserByID(userID)
}

func (u *UserRepository) GetUserByID(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:id:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, errors.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUsersByIDs(ids []string) ([]User, error) {
	users := make([]User, 0, len(ids))
	for _, id := range ids {
		user, err := u.GetUserByID(id)
		if err != nil {
			if stderrors.Is(err, errors.ErrNotFound) {
				// A participant deleted since the chat was created is
				// skipped rather than failing the whole lookup.
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SearchUsers returns accounts whose name or email contains keyword,
// case-insensitive, excluding the requesting user. An empty keyword matches
// everyone, mirroring the unfiltered listing of the HTTP search endpoint.
func (u *UserRepository) SearchUsers(ctx context.Context, keyword, excludeID string) ([]User, error) {
	ids, err := u.searchIDs(ctx, keyword)
	if err != nil {
		return nil, err
	}

	var users []User
	for _, id := range ids {
		if id == excludeID {
			continue
		}
		user, err := u.GetUserByID(id)
		if err != nil {
			if stderrors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (u *UserRepository) searchIDs(ctx context.Context, keyword string) ([]string, error) {
	reader, err := u.index.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open index reader: %w", err)
	}
	defer reader.Close()

	var query bluge.Query
	if keyword == "" {
		query = bluge.NewMatchAllQuery()
	} else {
		pattern := "*" + strings.ToLower(keyword) + "*"
		query = bluge.NewBooleanQuery().
			AddShould(bluge.NewWildcardQuery(pattern).SetField("name")).
			AddShould(bluge.NewWildcardQuery(pattern).SetField("email")).
			SetMinShould(1)
	}

	request := bluge.NewTopNSearch(u.searchLimit, query)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := iterator.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}
