package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartDebugServer exposes a read-only HTML view over the badger store on a
// separate port. Intended for local debugging, never for production traffic.
func StartDebugServer(db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = ChatMapper
	}

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "user:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("localhost:%d", port), mux)
	}()
}

// ChatMapper renders user, chat and message records. Keys follow the store's
// conventions: "user:id:<uuid>", "user:email:<email>", "chat:<uuid>" and
// "msg:<chatID>:<nanos>:<uuid>".
func ChatMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	parts := strings.SplitN(key, ":", 3)
	switch parts[0] {
	case "user":
		row.Type = "USER"
		if len(parts) == 3 {
			row.EntityID = shorten(parts[2])
		}
	case "chat":
		row.Type = "CHAT"
		if len(parts) >= 2 {
			row.EntityID = shorten(parts[1])
		}
	case "msg":
		row.Type = "MESSAGE"
		if len(parts) == 3 {
			row.EntityID = shorten(parts[1])
			if nanos, _, found := strings.Cut(parts[2], ":"); found {
				if tsNano, err := strconv.ParseInt(nanos, 10, 64); err == nil {
					row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
				}
			}
		}
	}

	if json.Valid(val) {
		detail := string(val)
		if len(detail) > 160 {
			detail = detail[:160] + "..."
		}
		row.Detail = detail
	}
	return row
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
