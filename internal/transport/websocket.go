package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/offerarena/offerarena/internal/debate"
	"github.com/offerarena/offerarena/internal/domain"
	"github.com/offerarena/offerarena/internal/identity"
)

// inFrame is the JSON frame read from chat clients. Type "message" carries
// plain text (commands included); type "form" carries a structured offer
// submission, the modal-equivalent path.
type inFrame struct {
	Type    string             `json:"type"`
	Text    string             `json:"text,omitempty"`
	Form    string             `json:"form,omitempty"`
	OfferID string             `json:"offer_id,omitempty"`
	Fields  domain.OfferFields `json:"fields,omitempty"`
}

// WebSocketHandler upgrades chat connections and feeds inbound frames to
// the orchestrator.
type WebSocketHandler struct {
	orch          *debate.Orchestrator
	channels      *ChannelManager
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates the chat handler.
func NewWebSocketHandler(orch *debate.Orchestrator, channels *ChannelManager, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		orch:          orch,
		channels:      channels,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// UserChannel names the outbound channel for a user. The REST surface uses
// the same name so offer-creation arguments reach the user's open chat.
func UserChannel(userID string) string {
	return "user:" + userID
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	displayName := identity.DisplayNameFromContext(r.Context())
	slog.Info("chat connection request", "user_id", userID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()

	channel := UserChannel(userID)
	h.channels.Register(channel, ws)
	defer h.channels.Unregister(channel, ws)

	ctx := r.Context()
	greeting := fmt.Sprintf("Welcome to the Offer Arena, %s! Type `/help` to see what you can do.", displayName)
	_ = h.channels.Send(ctx, channel, greeting)

	h.readLoop(ctx, ws, userID, displayName, channel)
	slog.Info("chat session ended", "user_id", userID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("chat origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, userID, displayName, channel string) {
	for {
		msgType, data, err := ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return
			}
			slog.Debug("chat read error", "error", err, "user_id", userID)
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var frame inFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Raw text frames are accepted as plain messages.
			frame = inFrame{Type: "message", Text: string(data)}
		}

		switch frame.Type {
		case "form":
			h.handleForm(ctx, userID, channel, frame)
		case "message", "":
			h.handleText(ctx, userID, displayName, channel, frame.Text)
		default:
			_ = h.channels.Send(ctx, channel, "Unsupported frame type.")
		}
	}
}

func (h *WebSocketHandler) handleText(ctx context.Context, userID, displayName, channel, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	ev := domain.Event{
		AuthorID:   userID,
		AuthorName: displayName,
		Text:       text,
		Channel:    channel,
	}

	cmd, isCommand := ParseCommand(text)
	if !isCommand {
		h.orch.HandleMessage(ctx, ev)
		return
	}

	switch cmd.Name {
	case "create":
		h.orch.StartCreateFlow(ctx, ev)

	case "update":
		if cmd.ID == "" {
			_ = h.channels.Send(ctx, channel, "Usage: `/update <id>`.")
			return
		}
		if _, err := h.orch.GetOffer(userID, cmd.ID); err != nil {
			_ = h.channels.Send(ctx, channel, fmt.Sprintf("No offer found with ID `%s`.", cmd.ID))
			return
		}
		_ = h.channels.Send(ctx, channel, fmt.Sprintf(
			"Send an offer form for `%s` (or use `PUT /api/offers/%s`) with the fields you want to change. "+
				"`/note %s <text>` attaches extra information.", cmd.ID, cmd.ID, cmd.ID))

	case "note":
		if cmd.ID == "" || cmd.Rest == "" {
			_ = h.channels.Send(ctx, channel, "Usage: `/note <id> <text>`.")
			return
		}
		if _, err := h.orch.AppendNote(userID, cmd.ID, cmd.Rest); err != nil {
			_ = h.channels.Send(ctx, channel, fmt.Sprintf("No offer found with ID `%s`.", cmd.ID))
			return
		}
		_ = h.channels.Send(ctx, channel, fmt.Sprintf("**Updated** offer `%s` with new info:\n%s", cmd.ID, cmd.Rest))

	case "remove":
		if cmd.ID == "" {
			_ = h.channels.Send(ctx, channel, "Usage: `/remove <id>`.")
			return
		}
		removed, err := h.orch.RemoveOffer(userID, cmd.ID)
		if err != nil {
			_ = h.channels.Send(ctx, channel, fmt.Sprintf("No offer found with ID `%s`.", cmd.ID))
			return
		}
		_ = h.channels.Send(ctx, channel, fmt.Sprintf(
			"**Removed** offer `%s` from consideration:\n- Company: %s", removed.ID, removed.CompanyName))

	case "list":
		_ = h.channels.Send(ctx, channel, formatOfferList(h.orch.ListOffers(userID)))

	case "go":
		h.orch.ContinueDebate(ctx, ev, cmd.ID)

	case "advise":
		h.orch.Advise(ctx, ev)

	case "ping":
		if cmd.Rest == "" {
			_ = h.channels.Send(ctx, channel, "Pong!")
		} else {
			_ = h.channels.Send(ctx, channel, "Pong! Your argument was "+cmd.Rest)
		}

	case "help":
		_ = h.channels.Send(ctx, channel, HelpText)

	default:
		_ = h.channels.Send(ctx, channel, "Unknown command. Type `/help` for the list.")
	}
}

func (h *WebSocketHandler) handleForm(ctx context.Context, userID, channel string, frame inFrame) {
	switch frame.Form {
	case "create_offer":
		if _, err := h.orch.SubmitOffer(ctx, userID, channel, frame.Fields); err != nil {
			slog.Warn("offer form rejected", "user_id", userID, "error", err)
		}
	case "update_offer":
		if frame.OfferID == "" {
			_ = h.channels.Send(ctx, channel, "Update form is missing the offer id.")
			return
		}
		updated, err := h.orch.UpdateOffer(ctx, userID, frame.OfferID, frame.Fields)
		if err != nil {
			_ = h.channels.Send(ctx, channel, debate.NoticeFor(err))
			return
		}
		_ = h.channels.Send(ctx, channel, fmt.Sprintf("**Updated** offer `%s` (%s).", updated.ID, updated.CompanyName))
	default:
		_ = h.channels.Send(ctx, channel, "Unsupported form.")
	}
}

func formatOfferList(offers []*domain.Offer) string {
	if len(offers) == 0 {
		return "No offers are currently available."
	}

	lines := []string{"**Currently Available Offers:**\n"}
	for _, o := range offers {
		extra := "(None)"
		if len(o.ExtraNotes) > 0 {
			extra = strings.Join(o.ExtraNotes, ", ")
		}
		lines = append(lines, fmt.Sprintf(
			"**Offer ID:** %s\n"+
				"**Company Name:** %s\n"+
				"**Job Title:** %s\n"+
				"**Job Description:**\n%s\n"+
				"**Package:** %s\n"+
				"**Extra Info:** %s\n"+
				"--------------------------------------\n",
			o.ID, o.CompanyName, o.JobTitle, snippet(o.JobDescription, 50), o.Package, extra))
	}
	return strings.Join(lines, "\n")
}

// snippet shortens s to at most n characters, never splitting a rune.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
