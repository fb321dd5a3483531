package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"chat-server/auth"
	"chat-server/httpapi"
	"chat-server/moderation"
	"chat-server/observability"
	"chat-server/relay"
	"chat-server/repositories"
	"chat-server/services"
	"chat-server/ws"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config  Config
	BaseURL string

	server *httptest.Server
	db     *badger.DB
	index  *bluge.Writer
}

// SetupSuite loads the environment configuration and, unless an external
// server address is configured, boots the full stack on in-memory storage.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr != "" {
		s.BaseURL = "http://" + s.Config.ServerAddr
		return
	}

	log := slog.Default()

	s.db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	s.Require().NoError(err)
	s.index, err = bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	s.Require().NoError(err)

	issuer, err := auth.NewTokenIssuer("e2e-secret", time.Hour)
	s.Require().NoError(err)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	s.Require().NoError(err)

	userRepository := repositories.NewUserRepository(s.db, s.index, log, 50)
	chatRepository := repositories.NewChatRepository(s.db)
	messageRepository := repositories.NewMessageRepository(s.db, log, nil)

	monitor := observability.NewMonitor(log)
	registry := relay.NewRegistry()
	r := relay.NewRelay(log, registry, monitor)
	socketHandler := ws.NewHandler(registry, r, monitor, log, 64, "")

	api := httpapi.NewServer(log, issuer,
		services.NewAuthService(userRepository, issuer),
		services.NewUserService(userRepository),
		services.NewChatService(chatRepository, userRepository, messageRepository, log),
		services.NewMessageService(messageRepository, chatRepository, userRepository, moderator, log),
		socketHandler, monitor)

	s.server = httptest.NewServer(api.Routes())
	s.BaseURL = s.server.URL
}

func (s *BaseHTTPSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.index != nil {
		_ = s.index.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Step prints a colorized header for a scenario step in logs.
func (s *BaseHTTPSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// DoJSON performs one HTTP call with optional bearer token, decodes the JSON
// response into out (when non-nil) and returns the status code.
func (s *BaseHTTPSuite) DoJSON(method, path, token string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	request, err := http.NewRequest(method, s.BaseURL+path, reader)
	s.Require().NoError(err)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	response, err := http.DefaultClient.Do(request)
	s.Require().NoError(err)
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, response.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		if body != nil {
			data, _ := json.MarshalIndent(body, "", "  ")
			fmt.Fprintf(&logBuilder, "\nREQUEST:\n%s", data)
		}
		fmt.Fprintf(&logBuilder, "\nRESPONSE:\n%s", raw)
	}
	s.T().Log(logBuilder.String())

	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return response.StatusCode
}

// SocketURL converts the suite's HTTP base URL to its websocket equivalent.
func (s *BaseHTTPSuite) SocketURL() string {
	return "ws" + strings.TrimPrefix(s.BaseURL, "http") + "/ws"
}
