package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// Save transfer QR: encodes the caller's current save so another device
	// can scan and import it.
	mux.HandleFunc("/export.png", func(w http.ResponseWriter, r *http.Request) {
		playerID, ok := authorize(hub, r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		data, err := currentSave(hub, playerID)
		if err != nil {
			http.Error(w, "save unavailable", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(string(data), qrcode.Medium, 512)
		if err != nil {
			// Saves late in a run can outgrow QR capacity
			http.Error(w, "save too large for QR", http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(png)
	})

	// Aggregate analytics for the operator dashboard
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if v := r.URL.Query().Get("days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				days = ClampInt(n, 1, 90)
			}
		}

		dau, _ := hub.analytics.DAUCount()
		wau, _ := hub.analytics.WAUCount()
		events, _ := hub.analytics.EventCounts(days)
		popular, _ := hub.analytics.PopularBusinesses(10)
		depths, _ := hub.analytics.IncorporationDepths()
		history, _ := hub.analytics.DailyActiveHistory(days)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"dau":            dau,
			"wau":            wau,
			"clients":        hub.ClientCount(),
			"sessions":       hub.analytics.ActiveSessions(),
			"events":         events,
			"popular":        popular,
			"incorporations": depths,
			"daily_active":   history,
		})
	})

	return mux
}

// authorize extracts and validates the token query parameter
func authorize(hub *Hub, r *http.Request) (int64, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return 0, false
	}
	playerID, _, err := hub.auth.ValidateToken(token)
	if err != nil {
		return 0, false
	}
	return playerID, true
}

// currentSave prefers the live session's state over the persisted row
func currentSave(hub *Hub, playerID int64) ([]byte, error) {
	if sess := hub.sessions.Get(playerID); sess != nil {
		return sess.Game.ExportSave(), nil
	}
	data, err := hub.db.GetSave(playerID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, http.ErrMissingFile
	}
	return data, nil
}
