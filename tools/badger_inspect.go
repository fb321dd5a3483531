package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

type userRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type chatRecord struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	IsGroup bool     `json:"is_group"`
	UserIDs []string `json:"user_ids"`
}

type messageRecord struct {
	ID       string    `json:"id"`
	SenderID string    `json:"sender_id"`
	Content  string    `json:"content"`
	Lang     string    `json:"lang"`
	At       time.Time `json:"at"`
}

func main() {
	dbPath := flag.String("db", "/tmp/badger", "Path to badger DB")
	// Par défaut on liste les utilisateurs, pas les index email
	prefix := flag.String("prefix", "user:id:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Entity ID", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			// On ignore les index secondaires email -> id
			if strings.HasPrefix(rawKey, "user:email:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(row(rawKey, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func row(key string, val []byte) []string {
	recordType := "RAW"
	timestamp := "--:--:--"
	entityID := "--------"
	detail := fmt.Sprintf("%d bytes", len(val))

	switch {
	case strings.HasPrefix(key, "user:"):
		var u userRecord
		if err := json.Unmarshal(val, &u); err == nil {
			recordType = "USER"
			entityID = shorten(u.ID)
			detail = fmt.Sprintf("%s <%s>", u.Name, u.Email)
		}
	case strings.HasPrefix(key, "chat:"):
		var c chatRecord
		if err := json.Unmarshal(val, &c); err == nil {
			recordType = "CHAT"
			if c.IsGroup {
				recordType = "GROUP"
			}
			entityID = shorten(c.ID)
			detail = fmt.Sprintf("%s (%d users)", c.Name, len(c.UserIDs))
		}
	case strings.HasPrefix(key, "msg:"):
		var m messageRecord
		if err := json.Unmarshal(val, &m); err == nil {
			recordType = "MESSAGE"
			timestamp = m.At.Format("15:04:05")
			entityID = shorten(m.SenderID)
			detail = m.Content
		} else if parts := strings.SplitN(key, ":", 3); len(parts) == 3 {
			if nanos, _, found := strings.Cut(parts[2], ":"); found {
				if tsNano, err := strconv.ParseInt(nanos, 10, 64); err == nil {
					timestamp = time.Unix(0, tsNano).Format("15:04:05")
				}
			}
		}
	}

	return []string{key, recordType, timestamp, entityID, detail}
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// Si corruption détectée, essaie un open en write pour truncate
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
