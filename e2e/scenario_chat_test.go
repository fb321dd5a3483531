package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chat-server/domain"
	"chat-server/domain/event"
)

type testChatScenarioSuite struct {
	BaseHTTPSuite
}

func TestChatScenarioSuite(t *testing.T) {
	suite.Run(t, &testChatScenarioSuite{})
}

type account struct {
	domain.AuthenticatedUser
	password string
}

func (s *testChatScenarioSuite) register(name string) account {
	email := fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8])
	password := "Sup3rSecret"

	var authenticated domain.AuthenticatedUser
	status := s.DoJSON("POST", "/api/user", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &authenticated)
	s.Require().Equal(201, status)
	s.Require().NotEmpty(authenticated.Token)
	return account{AuthenticatedUser: authenticated, password: password}
}

func (s *testChatScenarioSuite) connect(user account) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(s.SocketURL()+"?token="+user.Token, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	payload, err := json.Marshal(user.ID)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(event.Envelope{Event: event.Setup, Payload: payload}))

	env := s.receive(conn)
	s.Require().Equal(event.Connected, env.Event)
	return conn
}

func (s *testChatScenarioSuite) receive(conn *websocket.Conn) event.Envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	var env event.Envelope
	s.Require().NoError(conn.ReadJSON(&env))
	return env
}

func (s *testChatScenarioSuite) TestDirectChatFlow() {
	var alice, bob account
	var chat domain.Chat
	var sent domain.Message

	s.Run("Step 1: Register and login", func() {
		s.Step("Registering Alice and Bob")
		alice = s.register("Alice")
		bob = s.register("Bob")

		var authenticated domain.AuthenticatedUser
		status := s.DoJSON("POST", "/api/user/login", "", map[string]string{
			"email":    alice.Email,
			"password": alice.password,
		}, &authenticated)
		s.Require().Equal(200, status)
		s.Require().Equal(alice.ID, authenticated.ID)
	})

	s.Run("Step 2: Search users excludes the requester", func() {
		s.Step("Alice searches for Bob")
		var found []domain.User
		status := s.DoJSON("GET", "/api/user?search=bob", alice.Token, nil, &found)
		s.Require().Equal(200, status)

		ids := make([]string, 0, len(found))
		for _, user := range found {
			ids = append(ids, user.ID)
		}
		s.Require().Contains(ids, bob.ID)
		s.Require().NotContains(ids, alice.ID)
	})

	s.Run("Step 3: Access chat creates the direct chat once", func() {
		s.Step("Alice opens a chat with Bob")
		status := s.DoJSON("POST", "/api/chat", alice.Token, map[string]string{"userId": bob.ID}, &chat)
		s.Require().Equal(200, status)
		s.Require().Len(chat.Users, 2)

		var again domain.Chat
		status = s.DoJSON("POST", "/api/chat", bob.Token, map[string]string{"userId": alice.ID}, &again)
		s.Require().Equal(200, status)
		s.Require().Equal(chat.ID, again.ID)
	})

	s.Run("Step 4: Send a message with moderation applied", func() {
		s.Step("Alice sends a message containing a censored word")
		status := s.DoJSON("POST", "/api/message", alice.Token, map[string]string{
			"chatId":  chat.ID,
			"content": "hello badger friend",
		}, &sent)
		s.Require().Equal(200, status)
		s.Require().Equal("hello ****** friend", sent.Content)
		s.Require().Equal(alice.ID, sent.Sender.ID)
		s.Require().Len(sent.Chat.Users, 2)
	})

	s.Run("Step 5: Message history is chronological", func() {
		status := s.DoJSON("POST", "/api/message", alice.Token, map[string]string{
			"chatId":  chat.ID,
			"content": "second message",
		}, nil)
		s.Require().Equal(200, status)

		var page struct {
			Messages []domain.Message `json:"messages"`
		}
		status = s.DoJSON("GET", "/api/message/"+chat.ID, bob.Token, nil, &page)
		s.Require().Equal(200, status)
		s.Require().Len(page.Messages, 2)
		s.Require().Equal("hello ****** friend", page.Messages[0].Content)
		s.Require().Equal("second message", page.Messages[1].Content)
	})

	s.Run("Step 6: Socket relay delivers to the other participant only", func() {
		s.Step("Both connect, Alice emits the stored message")
		aliceConn := s.connect(alice)
		bobConn := s.connect(bob)

		payload, err := json.Marshal(sent)
		s.Require().NoError(err)
		s.Require().NoError(aliceConn.WriteJSON(event.Envelope{
			Event:   event.NewMessage,
			Payload: payload,
		}))

		env := s.receive(bobConn)
		s.Require().Equal(event.MessageReceived, env.Event)

		var relayed domain.Message
		s.Require().NoError(json.Unmarshal(env.Payload, &relayed))
		s.Require().Equal(sent.ID, relayed.ID)
		s.Require().Equal(sent.Content, relayed.Content)

		// Alice must not receive her own message back
		s.Require().NoError(aliceConn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
		var stray event.Envelope
		s.Require().Error(aliceConn.ReadJSON(&stray))
	})

	s.Run("Step 7: Typing indicator reaches the chat room", func() {
		aliceConn := s.connect(alice)
		bobConn := s.connect(bob)

		roomPayload, err := json.Marshal(chat.ID)
		s.Require().NoError(err)
		s.Require().NoError(aliceConn.WriteJSON(event.Envelope{Event: event.JoinChat, Payload: roomPayload}))
		s.Require().NoError(bobConn.WriteJSON(event.Envelope{Event: event.JoinChat, Payload: roomPayload}))

		// Joins carry no acknowledgement; give the server a moment
		time.Sleep(100 * time.Millisecond)

		s.Require().NoError(aliceConn.WriteJSON(event.Envelope{Event: event.Typing, Payload: roomPayload}))
		env := s.receive(bobConn)
		s.Require().Equal(event.Typing, env.Event)

		s.Require().NoError(aliceConn.WriteJSON(event.Envelope{Event: event.StopTyping, Payload: roomPayload}))
		env = s.receive(bobConn)
		s.Require().Equal(event.StopTyping, env.Event)
	})
}

func (s *testChatScenarioSuite) TestGroupChatFlow() {
	s.Step("Registering the group members")
	admin := s.register("Admin")
	member := s.register("Member")
	other := s.register("Other")
	latecomer := s.register("Latecomer")

	var group domain.Chat

	s.Run("Step 1: Create the group", func() {
		status := s.DoJSON("POST", "/api/chat/group", admin.Token, map[string]any{
			"name":  "Weekend plans",
			"users": []string{member.ID, other.ID},
		}, &group)
		s.Require().Equal(200, status)
		s.Require().True(group.IsGroup)
		s.Require().Len(group.Users, 3)
		s.Require().NotNil(group.GroupAdmin)
		s.Require().Equal(admin.ID, group.GroupAdmin.ID)
	})

	s.Run("Step 2: Rename, add and remove members", func() {
		var renamed domain.Chat
		status := s.DoJSON("PUT", "/api/chat/rename", member.Token, map[string]string{
			"chatId":   group.ID,
			"chatName": "Monday plans",
		}, &renamed)
		s.Require().Equal(200, status)
		s.Require().Equal("Monday plans", renamed.Name)

		var grown domain.Chat
		status = s.DoJSON("PUT", "/api/chat/groupadd", admin.Token, map[string]string{
			"chatId": group.ID,
			"userId": latecomer.ID,
		}, &grown)
		s.Require().Equal(200, status)
		s.Require().Len(grown.Users, 4)

		var shrunk domain.Chat
		status = s.DoJSON("PUT", "/api/chat/groupremove", admin.Token, map[string]string{
			"chatId": group.ID,
			"userId": other.ID,
		}, &shrunk)
		s.Require().Equal(200, status)
		s.Require().Len(shrunk.Users, 3)
	})

	s.Run("Step 3: Outsiders cannot mutate the group", func() {
		outsider := s.register("Outsider")
		status := s.DoJSON("PUT", "/api/chat/rename", outsider.Token, map[string]string{
			"chatId":   group.ID,
			"chatName": "Hijacked",
		}, nil)
		s.Require().Equal(403, status)
	})

	s.Run("Step 4: Group message fans out to every member", func() {
		memberConn := s.connect(member)
		latecomerConn := s.connect(latecomer)

		var sent domain.Message
		status := s.DoJSON("POST", "/api/message", admin.Token, map[string]string{
			"chatId":  group.ID,
			"content": "meeting at nine",
		}, &sent)
		s.Require().Equal(200, status)

		payload, err := json.Marshal(sent)
		s.Require().NoError(err)

		adminConn := s.connect(admin)
		s.Require().NoError(adminConn.WriteJSON(event.Envelope{
			Event:   event.NewMessage,
			Payload: payload,
		}))

		s.Require().Equal(event.MessageReceived, s.receive(memberConn).Event)
		s.Require().Equal(event.MessageReceived, s.receive(latecomerConn).Event)
	})

	s.Run("Step 5: Fetch chats lists the group first after activity", func() {
		var chats []domain.Chat
		status := s.DoJSON("GET", "/api/chat", admin.Token, nil, &chats)
		s.Require().Equal(200, status)
		s.Require().NotEmpty(chats)
		s.Require().Equal(group.ID, chats[0].ID)
		s.Require().NotNil(chats[0].LatestMessage)
		s.Require().Equal("meeting at nine", chats[0].LatestMessage.Content)
	})
}
