// Package simtest provides an in-process Showdown server for tests.
//
// A Server answers the websocket protocol, the login action page and the
// cross domain lookup from one httptest server. It understands the subset
// of the protocol a chat client needs: challstr, /trn, /join, /leave, /pm
// and room chat.
package simtest

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/luciancaetano/showdown"
)

// Password is the only password the login page accepts.
const Password = "hunter2"

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 256
)

// Frame is a frame received by the server.
type Frame struct {
	// User is the name the connection was logged in as, empty for guests.
	User string
	Data string
	At   time.Time
}

// Server is a fake Showdown server.
type Server struct {
	http     *httptest.Server
	upgrader websocket.Upgrader
	clients  sync.Map // map[string]*client

	mu       sync.Mutex
	rooms    map[string]map[string]*client
	received []Frame
}

// New starts a server. Call Close when done.
func New() *Server {
	s := &Server{
		rooms: make(map[string]map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(showdown.WebsocketPath, s.handleWebSocket)
	mux.HandleFunc("/~~"+showdown.DefaultServerID+"/action.php", s.handleLogin)
	mux.HandleFunc("/crossdomain.php", s.handleCrossDomain)
	s.http = httptest.NewServer(mux)
	return s
}

// Close disconnects every client and stops the server.
func (s *Server) Close() {
	s.clients.Range(func(key, value any) bool {
		value.(*client).close()
		return true
	})
	s.http.Close()
}

// Server returns the record a Resolver would return for this server.
func (s *Server) Server() showdown.Server {
	addr := s.http.Listener.Addr().(*net.TCPAddr)
	return showdown.Server{Host: addr.IP.String(), Port: addr.Port, ID: showdown.DefaultServerID}
}

// LoginURL returns the base URL of the login page.
func (s *Server) LoginURL() string {
	return s.http.URL
}

// CrossDomainURL returns the URL of the server lookup page. Every name
// resolves to this server.
func (s *Server) CrossDomainURL() string {
	return s.http.URL + "/crossdomain.php"
}

// Received returns the frames received so far, in arrival order.
func (s *Server) Received() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.received...)
}

// InRoom reports whether a connection logged in as name has joined room.
func (s *Server) InRoom(name, room string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.rooms[showdown.ToRoomID(room)] {
		if showdown.ToID(c.user()) == showdown.ToID(name) {
			return true
		}
	}
	return false
}

// Kick drops the connections logged in as name without a close frame.
func (s *Server) Kick(name string) int {
	kicked := 0
	s.clients.Range(func(key, value any) bool {
		if c := value.(*client); showdown.ToID(c.user()) == showdown.ToID(name) {
			c.conn.Close()
			kicked++
		}
		return true
	})
	return kicked
}

func (s *Server) handleCrossDomain(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(s.Server())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "<!DOCTYPE html>\n<script>\nvar config = %s;\n</script>\n", data)
}

type loginResponse struct {
	ActionSuccess bool   `json:"actionsuccess"`
	Assertion     string `json:"assertion"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.ParseForm() != nil || r.PostForm.Get("act") != "login" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp := loginResponse{Assertion: ";;Wrong password."}
	if r.PostForm.Get("pass") == Password {
		resp = loginResponse{
			ActionSuccess: true,
			Assertion:     assertion(r.PostForm.Get("name"), r.PostForm.Get("challenge")),
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(append([]byte("]"), data...))
}

// assertion is the signed token the login page issues for name.
func assertion(name, challenge string) string {
	return showdown.ToID(name) + "," + challenge
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newClient(conn)
	s.clients.Store(c.id, c)

	go s.handleClient(c)
}

// handleClient runs the read loop of c.
func (s *Server) handleClient(c *client) {
	defer func() {
		s.clients.Delete(c.id)
		s.leaveAll(c)
		c.close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	c.send("|challstr|4|" + c.challenge)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		if messageType != websocket.TextMessage {
			c.closeWithCode(websocket.CloseUnsupportedData, "text frames only")
			return
		}

		raw := string(data)
		s.mu.Lock()
		s.received = append(s.received, Frame{User: c.user(), Data: raw, At: time.Now()})
		s.mu.Unlock()

		s.handleFrame(c, raw)
	}
}

// handleFrame executes one "ROOM|TEXT" frame.
func (s *Server) handleFrame(c *client, raw string) {
	room, text, ok := strings.Cut(raw, "|")
	if !ok {
		c.send("|popup|Malformed message.")
		return
	}
	room = showdown.ToRoomID(room)
	if room == "" {
		room = showdown.DefaultRoom
	}

	if strings.HasPrefix(text, "/") && !strings.HasPrefix(text, "//") {
		command, argument, _ := strings.Cut(text[1:], " ")
		s.handleCommand(c, room, command, argument)
		return
	}

	// the server trims chat, which undoes the client's leading-space escape
	s.say(c, room, strings.TrimSpace(strings.TrimPrefix(text, "/")))
}

func (s *Server) handleCommand(c *client, room, command, argument string) {
	switch command {
	case showdown.CmdRename:
		parts := strings.SplitN(argument, ",", 3)
		if len(parts) != 3 || parts[2] != assertion(parts[0], c.challenge) {
			c.send("|nametaken|" + parts[0] + "|Your assertion is invalid.")
			return
		}
		c.setUser(parts[0])
		c.send("|updateuser| " + parts[0] + "|1|1|{}")

	case showdown.CmdJoin:
		id := showdown.ToRoomID(argument)
		if id == "" {
			c.send("|noinit|nonexistent|The room \"" + argument + "\" does not exist.")
			return
		}
		s.mu.Lock()
		if s.rooms[id] == nil {
			s.rooms[id] = make(map[string]*client)
		}
		s.rooms[id][c.id] = c
		s.mu.Unlock()
		c.send(">" + id + "\n|init|chat\n|title|" + argument)

	case showdown.CmdLeave:
		s.mu.Lock()
		delete(s.rooms[room], c.id)
		s.mu.Unlock()
		c.send(">" + room + "\n|deinit")

	case showdown.CmdPM:
		target, text, ok := strings.Cut(argument, ",")
		if !ok || c.user() == "" {
			c.send("|popup|You must be logged in to send private messages.")
			return
		}
		to := s.findUser(target)
		if to == nil {
			c.send("|pm| " + c.user() + "| " + target + "|/error User " + target + " not found.")
			return
		}
		frame := "|pm| " + c.user() + "| " + to.user() + "|" + strings.TrimPrefix(strings.TrimSpace(text), "/")
		c.send(frame)
		if to != c {
			to.send(frame)
		}

	default:
		c.send(">" + room + "\n|error|The command '/" + command + "' does not exist.")
	}
}

func (s *Server) say(c *client, room, text string) {
	if c.user() == "" {
		c.send(">" + room + "\n|error|You must choose a name before you can talk.")
		return
	}

	s.mu.Lock()
	members := make([]*client, 0, len(s.rooms[room]))
	_, joined := s.rooms[room][c.id]
	for _, m := range s.rooms[room] {
		members = append(members, m)
	}
	s.mu.Unlock()

	if !joined {
		c.send(">" + room + "\n|error|You are not in the room \"" + room + "\".")
		return
	}

	frame := fmt.Sprintf(">%s\n|c:|%d| %s|%s", room, time.Now().Unix(), c.user(), text)
	for _, m := range members {
		m.send(frame)
	}
}

func (s *Server) findUser(name string) *client {
	var found *client
	s.clients.Range(func(key, value any) bool {
		if c := value.(*client); c.user() != "" && showdown.ToID(c.user()) == showdown.ToID(name) {
			found = c
			return false
		}
		return true
	})
	return found
}

func (s *Server) leaveAll(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, members := range s.rooms {
		delete(members, c.id)
	}
}

// client is one websocket connection to the server.
type client struct {
	id        string
	challenge string
	conn      *websocket.Conn
	sendCh    chan string
	done      chan struct{}

	mu     sync.RWMutex
	name   string
	closed bool
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		id:        uuid.New().String(),
		challenge: strings.ReplaceAll(uuid.New().String(), "-", ""),
		conn:      conn,
		sendCh:    make(chan string, sendBuffer),
		done:      make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *client) user() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *client) setUser(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// send queues raw for the write pump. Frames for closed or slow clients
// are dropped.
func (c *client) send(raw string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.sendCh <- raw:
	default:
	}
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case raw := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
				return
			}
		}
	}
}

func (c *client) closeWithCode(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.close()
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.Close()
}
