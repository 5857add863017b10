package debate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/offerarena/offerarena/internal/domain"
)

// cancelKeyword aborts the interactive create flow at any step.
const cancelKeyword = "cancel"

// sessionGuard tracks which users are inside a blocking multi-step input
// flow. While a user's flow is active, their inbound plain messages are
// routed to the flow instead of triggering a debate round. Keyed by the
// individual author, never by the store owner: in shared-arena mode the
// offers are pooled but one user's form must not capture another user's
// messages.
type sessionGuard struct {
	mu     sync.Mutex
	active map[string]chan string
}

func newSessionGuard() *sessionGuard {
	return &sessionGuard{active: make(map[string]chan string)}
}

// begin marks the user as in-form and returns the flow's input channel.
// Returns false if a flow is already active for that user.
func (g *sessionGuard) begin(userID string) (chan string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.active[userID]; exists {
		return nil, false
	}
	ch := make(chan string, 4)
	g.active[userID] = ch
	return ch, true
}

// deliver routes an inbound message to the user's active flow. Returns
// false when no flow is active, meaning normal handling applies.
func (g *sessionGuard) deliver(userID, text string) bool {
	g.mu.Lock()
	ch, ok := g.active[userID]
	g.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- text:
	default:
		// The flow consumes one message per step; anything typed past the
		// buffer while a step is mid-flight is dropped.
	}
	return true
}

// end clears the user's session flag.
func (g *sessionGuard) end(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, userID)
}

// StartCreateFlow begins the interactive offer-creation flow for the event's
// author. The flow runs in its own goroutine, consuming the user's next
// messages one step at a time until every field is collected, the user types
// "cancel", or a step times out. On success the offer is created and its
// persona immediately argues its case.
func (o *Orchestrator) StartCreateFlow(ctx context.Context, ev domain.Event) {
	input, ok := o.guard.begin(ev.AuthorID)
	if !ok {
		o.send(ctx, ev.Channel, "You are already creating an offer. Cancel or finish that first.")
		return
	}

	go o.runCreateFlow(ctx, o.ownerOf(ev.AuthorID), ev, input)
}

type formStep struct {
	prompt string
	assign func(*domain.OfferFields, string)
}

func (o *Orchestrator) runCreateFlow(ctx context.Context, owner string, ev domain.Event, input chan string) {
	defer o.guard.end(ev.AuthorID)

	steps := []formStep{
		{
			prompt: "**Let's create a new job offer.**\nEnter the **Company Name** (or type `cancel`):",
			assign: func(f *domain.OfferFields, v string) { f.CompanyName = &v },
		},
		{
			prompt: "Enter the **Job Title** (or type `cancel`):",
			assign: func(f *domain.OfferFields, v string) { f.JobTitle = &v },
		},
		{
			prompt: "Enter the **Location** (e.g. New York, Remote):",
			assign: func(f *domain.OfferFields, v string) { f.Location = &v },
		},
		{
			prompt: "Enter the **Job Description**, or paste a URL to fetch it from:",
			assign: func(f *domain.OfferFields, v string) { f.JobDescription = &v },
		},
		{
			prompt: "Enter the **Package** (e.g. `100k USD + benefits`):",
			assign: func(f *domain.OfferFields, v string) { f.Package = &v },
		},
	}

	var fields domain.OfferFields
	for _, step := range steps {
		o.send(ctx, ev.Channel, step.prompt)
		value, err := o.awaitInput(ctx, input)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInputCancelled):
				o.send(ctx, ev.Channel, "**Cancelled.** Aborting the creation process.")
			case errors.Is(err, domain.ErrInputTimeout):
				o.send(ctx, ev.Channel, "**Timed out.** Aborting the creation process.")
			}
			return
		}
		step.assign(&fields, value)
	}

	offer, err := o.createOffer(ctx, owner, ev.Channel, fields)
	if err != nil {
		return
	}
	slog.Info("offer created via interactive flow", "user_id", owner, "offer_id", offer.ID)
}

// awaitInput waits for the user's next message in the flow, honoring the
// cancel keyword and the per-step timeout. Timeouts are local to one step,
// not to the whole flow.
func (o *Orchestrator) awaitInput(ctx context.Context, input chan string) (string, error) {
	timer := time.NewTimer(o.formStepTimeout)
	defer timer.Stop()

	select {
	case msg := <-input:
		if strings.EqualFold(strings.TrimSpace(msg), cancelKeyword) {
			return "", domain.ErrInputCancelled
		}
		return msg, nil
	case <-timer.C:
		return "", domain.ErrInputTimeout
	case <-ctx.Done():
		return "", domain.ErrInputCancelled
	}
}

// createOffer persists the collected fields and emits the confirmation plus
// the new persona's opening argument. Shared by the interactive flow and the
// structured form submission path.
func (o *Orchestrator) createOffer(ctx context.Context, owner, channel string, fields domain.OfferFields) (*domain.Offer, error) {
	offer, err := o.offers.Create(ctx, owner, fields)
	if err != nil {
		o.send(ctx, channel, NoticeFor(err))
		return nil, err
	}

	o.send(ctx, channel, fmt.Sprintf(
		"**Success!** Created offer `%s`:\n"+
			"- Company Name: %s\n"+
			"- Job Title: %s\n"+
			"- Location: %s\n"+
			"- Job Description: %s\n"+
			"- Package: %s",
		offer.ID, offer.CompanyName, offer.JobTitle, offer.Location,
		truncate(offer.JobDescription, 200), offer.Package,
	))

	o.mu(owner).Lock()
	defer o.mu(owner).Unlock()
	o.speakAs(ctx, owner, channel, offer, "**Initial AI Response from "+offer.CompanyName+"**:\n")
	return offer, nil
}

// truncate shortens s to at most n characters, never splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
