package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 65536 // imports carry a full serialized save
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Auth state
	playerID int64 // 0 = unauthenticated
	username string
	session  *Session
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgGuest:
		c.handleGuest()
	case MsgClick:
		c.handleClick()
	case MsgBuy:
		c.handleBuy(env.D)
	case MsgUpgrade:
		c.handleUpgrade(env.D)
	case MsgMode:
		c.handleMode(env.D)
	case MsgIncorporate:
		c.handleIncorporate()
	case MsgReset:
		c.handleReset()
	case MsgExport:
		c.handleExport()
	case MsgImport:
		c.handleImport(env.D)
	case MsgBranch:
		c.handleBranch(env.D)
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// attachSession resumes the player's simulation after a successful auth
func (c *Client) attachSession() {
	sess, offline, err := c.hub.sessions.Resume(c.playerID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.session = sess
	sess.Attach(c)
	if offline != nil {
		c.SendJSON(Envelope{T: MsgOffline, Data: *offline})
	}
}

func (c *Client) handleRegister(data json.RawMessage) {
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.playerID = id
	c.username = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
	c.attachSession()
}

func (c *Client) handleLogin(data json.RawMessage) {
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.playerID = id
	c.username = msg.Username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: msg.Username, PlayerID: id}})
	c.attachSession()
}

func (c *Client) handleAuth(data json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.playerID = id
	c.username = username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: msg.Token, Username: username, PlayerID: id}})
	c.attachSession()
}

func (c *Client) handleGuest() {
	id, username, token, err := c.hub.auth.Guest()
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.playerID = id
	c.username = username
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Username: username, PlayerID: id}})
	c.attachSession()
}

func (c *Client) handleClick() {
	if c.session == nil {
		return
	}
	c.session.Game.Click()
}

func (c *Client) handleBuy(data json.RawMessage) {
	if c.session == nil {
		return
	}
	var msg BuyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.session.Game.BuyBusiness(msg.ID) {
		c.hub.analytics.Track(EvtBusinessBuy, c.playerID, c.session.ID,
			fmt.Sprintf(`{"id":%q,"mode":%q}`, msg.ID, c.session.Game.BuyMode()))
	}
}

func (c *Client) handleUpgrade(data json.RawMessage) {
	if c.session == nil {
		return
	}
	var msg UpgradeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.session.Game.BuyUpgrade(msg.ID) {
		c.hub.analytics.Track(EvtUpgradeBuy, c.playerID, c.session.ID,
			fmt.Sprintf(`{"id":%q}`, msg.ID))
	}
}

func (c *Client) handleMode(data json.RawMessage) {
	if c.session == nil {
		return
	}
	var msg ModeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.session.Game.SetBuyMode(msg.Mode)
}

func (c *Client) handleIncorporate() {
	if c.session == nil {
		return
	}
	gain := c.session.Game.Incorporate()
	if gain == 0 {
		c.sendError("not enough cash to incorporate")
		return
	}
	c.hub.analytics.Track(EvtIncorporate, c.playerID, c.session.ID,
		fmt.Sprintf(`{"gain":%d,"count":%d}`, gain, c.session.Game.Incorporations()))
	c.SendJSON(Envelope{T: MsgPrestige, Data: PrestigeMsg{
		Gain:           gain,
		Influence:      c.session.Game.Influence(),
		Incorporations: c.session.Game.Incorporations(),
	}})
}

func (c *Client) handleReset() {
	if c.session == nil {
		return
	}
	c.session.Game.ResetGame()
	c.hub.analytics.Track(EvtHardReset, c.playerID, c.session.ID, "")
}

func (c *Client) handleExport() {
	if c.session == nil {
		return
	}
	data := c.session.Game.ExportSave()
	c.hub.analytics.Track(EvtSaveExport, c.playerID, c.session.ID, "")
	c.SendJSON(Envelope{T: MsgExported, Data: ExportedMsg{Data: string(data)}})
}

func (c *Client) handleImport(data json.RawMessage) {
	if c.session == nil {
		return
	}
	var msg ImportMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	res, ok := c.session.Game.RestoreSave([]byte(msg.Data))
	if !ok {
		c.sendError("invalid save data")
		return
	}
	c.hub.analytics.Track(EvtSaveImport, c.playerID, c.session.ID, "")
	if res.Earned > 0 {
		c.SendJSON(Envelope{T: MsgOffline, Data: res})
	}
}

func (c *Client) handleBranch(data json.RawMessage) {
	if c.session == nil {
		return
	}
	var msg BranchMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.session.SetBranchExpanded(msg.ID, msg.Expanded)
}
