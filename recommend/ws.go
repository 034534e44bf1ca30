package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartpad/landing/backend/httpx"
	"github.com/smartpad/landing/backend/landing"
)

const (
	wsMessageTimeout = 10 * time.Second
	wsWriteTimeout   = 5 * time.Second
)

// wsEnvelope lets a session message pick a rule set. A bare request is also
// accepted.
type wsEnvelope struct {
	Rules   string          `json:"rules"`
	Request json.RawMessage `json:"request"`
}

type wsReply struct {
	Response *Result              `json:"response,omitempty"`
	Error    string               `json:"error,omitempty"`
	Fields   []landing.FieldError `json:"fields,omitempty"`
}

// ServeWS runs an interactive session. Every inbound text message is one
// landing request and gets exactly one reply. The rules query parameter sets
// the session's rule set; an envelope's rules field overrides it.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	key := CallerKey(r)
	sessionRules := r.URL.Query().Get("rules")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Warn("websocket upgrade failed", "origin", r.Header.Get("Origin"), "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(httpx.MaxBodyBytes)

	ctx := context.WithoutCancel(r.Context())
	h.lg.Info("landing session opened", "session", key)

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			var cerr *websocket.CloseError
			if !errors.As(err, &cerr) {
				h.lg.Warn("landing session read failed", "session", key, "error", err)
			}
			h.lg.Info("landing session closed", "session", key)
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		reply := h.handleMessage(ctx, key, sessionRules, msg)

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			h.lg.Warn("landing session write failed", "session", key, "error", err)
			return
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, key, rules string, msg []byte) wsReply {
	payload, msgRules, err := decodeMessage(msg)
	if err != nil {
		return wsReply{Error: "invalid request payload"}
	}
	if msgRules != "" {
		rules = msgRules
	}

	ctx, cancel := context.WithTimeout(ctx, wsMessageTimeout)
	defer cancel()

	res, err := h.svc.Recommend(ctx, rules, payload)
	if err != nil {
		status, text, fields := describeError(err)
		if status == http.StatusInternalServerError {
			h.lg.Error("recommendation failed", "session", key, "error", err)
		}
		return wsReply{Error: text, Fields: fields}
	}

	h.last.Put(key, res)
	return wsReply{Response: &res}
}

func decodeMessage(msg []byte) (Request, string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(msg, &fields); err != nil {
		return Request{}, "", err
	}

	var payload Request
	if _, wrapped := fields["request"]; !wrapped {
		err := httpx.Decode(bytes.NewReader(msg), &payload)
		return payload, "", err
	}

	var env wsEnvelope
	if err := httpx.Decode(bytes.NewReader(msg), &env); err != nil {
		return Request{}, "", err
	}
	if err := httpx.Decode(bytes.NewReader(env.Request), &payload); err != nil {
		return Request{}, "", err
	}
	return payload, env.Rules, nil
}
