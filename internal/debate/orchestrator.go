package debate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/offerarena/offerarena/internal/domain"
	"github.com/offerarena/offerarena/internal/store"
)

// sharedArenaOwner is the single owner every caller maps onto when the
// service runs in shared-arena mode.
const sharedArenaOwner = "arena"

// noOffersNotice is emitted when a debate is triggered with no live offers.
const noOffersNotice = "No offers available to debate! Use `/create` to add some offers first."

// CompletionGateway is the single lane through which the orchestrator
// reaches the model backend.
type CompletionGateway interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Outbound delivers text to a transport channel, fire-and-forget.
type Outbound interface {
	Send(ctx context.Context, channel, text string) error
}

// Recorder receives every utterance appended to the debate history, for
// transcript logging. Implementations must not block.
type Recorder interface {
	Record(userID, speaker, text string)
}

// Orchestrator drives the debate state machine. Each inbound event for a
// user is handled to completion under that user's lock before the next is
// considered, so personas within one fan-out round always see the entries
// appended earlier in the same round.
type Orchestrator struct {
	offers    *store.OfferStore
	history   *store.HistoryStore
	assembler *Assembler
	gateway   CompletionGateway
	outbound  Outbound
	recorder  Recorder
	guard     *sessionGuard

	sharedArena     bool
	formStepTimeout time.Duration

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Options tune orchestrator behavior.
type Options struct {
	// SharedArena maps every caller onto one global owner.
	SharedArena bool
	// FormStepTimeout bounds each wait-for-input step of the create flow.
	FormStepTimeout time.Duration
	// Recorder is optional transcript logging.
	Recorder Recorder
}

// New creates an orchestrator over the given stores, gateway, and transport.
func New(offers *store.OfferStore, history *store.HistoryStore, assembler *Assembler, gw CompletionGateway, out Outbound, opts Options) *Orchestrator {
	if opts.FormStepTimeout <= 0 {
		opts.FormStepTimeout = 120 * time.Second
	}
	return &Orchestrator{
		offers:          offers,
		history:         history,
		assembler:       assembler,
		gateway:         gw,
		outbound:        out,
		recorder:        opts.Recorder,
		guard:           newSessionGuard(),
		sharedArena:     opts.SharedArena,
		formStepTimeout: opts.FormStepTimeout,
	}
}

// ownerOf maps a caller to the owner key for all three stores.
func (o *Orchestrator) ownerOf(userID string) string {
	if o.sharedArena {
		return sharedArenaOwner
	}
	return userID
}

// mu returns the per-user lock serializing event handling for one owner.
func (o *Orchestrator) mu(owner string) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	m, ok := o.locks[owner]
	if !ok {
		if o.locks == nil {
			o.locks = make(map[string]*sync.Mutex)
		}
		m = &sync.Mutex{}
		o.locks[owner] = m
	}
	return m
}

// HandleMessage processes an inbound plain message. While the author is
// inside an interactive flow the message belongs to that flow; otherwise it
// is logged under the human's label and every live offer's persona responds
// in creation order.
func (o *Orchestrator) HandleMessage(ctx context.Context, ev domain.Event) {
	if o.guard.deliver(ev.AuthorID, ev.Text) {
		return
	}

	owner := o.ownerOf(ev.AuthorID)

	o.mu(owner).Lock()
	defer o.mu(owner).Unlock()

	slog.Info("processing message", "user_id", owner, "channel", ev.Channel)

	// The human's message is logged even with zero offers, so an offer
	// created later argues against a complete record.
	o.append(owner, ev.AuthorName, ev.Text)

	offers := o.offers.List(owner)
	if len(offers) == 0 {
		o.send(ctx, ev.Channel, noOffersNotice)
		return
	}

	o.send(ctx, ev.Channel, "**Companies respond to your message:**")
	o.fanOut(ctx, owner, ev.Channel, offers)
}

// ContinueDebate runs one more round without requiring a new human message.
// With an offer id only that persona speaks; otherwise every live offer's
// persona speaks in creation order.
func (o *Orchestrator) ContinueDebate(ctx context.Context, ev domain.Event, offerID string) {
	owner := o.ownerOf(ev.AuthorID)
	o.mu(owner).Lock()
	defer o.mu(owner).Unlock()

	offers := o.offers.List(owner)
	if len(offers) == 0 {
		o.send(ctx, ev.Channel, noOffersNotice)
		return
	}

	if offerID == "" {
		o.fanOut(ctx, owner, ev.Channel, offers)
		return
	}

	if _, err := strconv.Atoi(offerID); err != nil {
		o.send(ctx, ev.Channel, NoticeFor(&domain.ValidationError{Field: "offer id", Reason: "must be a number"}))
		return
	}
	offer, err := o.offers.Get(owner, offerID)
	if err != nil {
		o.send(ctx, ev.Channel, fmt.Sprintf("No offer found with ID `%s`.", offerID))
		return
	}
	o.fanOut(ctx, owner, ev.Channel, []*domain.Offer{offer})
}

// Advise summarizes the debate so far and recommends an offer, speaking
// under the fixed advisor label. Refuses when no debate has happened yet.
func (o *Orchestrator) Advise(ctx context.Context, ev domain.Event) {
	owner := o.ownerOf(ev.AuthorID)
	o.mu(owner).Lock()
	defer o.mu(owner).Unlock()

	if o.history.Len(owner) == 0 {
		o.send(ctx, ev.Channel, "You haven't discussed any offers yet. Start a discussion before asking for advice!")
		return
	}

	system, user := advisorPrompts(o.assembler.Render(owner))
	advice, err := o.gateway.Complete(ctx, system, user)
	if err != nil {
		o.send(ctx, ev.Channel, NoticeFor(err))
		return
	}

	o.append(owner, domain.AdvisorLabel, advice)
	o.send(ctx, ev.Channel, "**"+domain.AdvisorLabel+":**\n"+advice)
}

// SubmitOffer is the structured-form creation path: all fields arrive at
// once. On success the new persona immediately argues its case on the
// user's channel.
func (o *Orchestrator) SubmitOffer(ctx context.Context, userID, channel string, fields domain.OfferFields) (*domain.Offer, error) {
	return o.createOffer(ctx, o.ownerOf(userID), channel, fields)
}

// UpdateOffer overwrites the supplied fields of an existing offer. No
// regeneration is triggered; the next round argues from the updated record.
func (o *Orchestrator) UpdateOffer(ctx context.Context, userID, id string, fields domain.OfferFields) (*domain.Offer, error) {
	return o.offers.Update(ctx, o.ownerOf(userID), id, fields)
}

// AppendNote attaches one extra note to an existing offer.
func (o *Orchestrator) AppendNote(userID, id, note string) (*domain.Offer, error) {
	return o.offers.AppendNote(o.ownerOf(userID), id, note)
}

// RemoveOffer deletes an offer permanently and returns the prior value.
// History entries mentioning its persona remain.
func (o *Orchestrator) RemoveOffer(userID, id string) (*domain.Offer, error) {
	return o.offers.Delete(o.ownerOf(userID), id)
}

// GetOffer returns one of the caller's offers by id.
func (o *Orchestrator) GetOffer(userID, id string) (*domain.Offer, error) {
	return o.offers.Get(o.ownerOf(userID), id)
}

// ListOffers returns the caller's live offers in creation order.
func (o *Orchestrator) ListOffers(userID string) []*domain.Offer {
	return o.offers.List(o.ownerOf(userID))
}

// History returns the caller's debate history, oldest first.
func (o *Orchestrator) History(userID string) []domain.HistoryEntry {
	return o.history.Recent(o.ownerOf(userID), 0)
}

// fanOut generates one argument per offer, strictly in order. Each persona's
// context is rendered after the previous persona's entry was appended, so
// later speakers rebut earlier speakers from the same round. A failure for
// one persona surfaces as a notice and the round continues.
func (o *Orchestrator) fanOut(ctx context.Context, owner, channel string, offers []*domain.Offer) {
	for _, offer := range offers {
		o.speakAs(ctx, owner, channel, offer, fmt.Sprintf("**%s (Offer ID %s)**:\n", offer.CompanyName, offer.ID))
	}
}

// speakAs generates and emits one persona argument, appending it to history.
func (o *Orchestrator) speakAs(ctx context.Context, owner, channel string, offer *domain.Offer, emitPrefix string) {
	system, user := personaPrompts(offer, o.assembler.Render(owner))
	text, err := o.gateway.Complete(ctx, system, user)
	if err != nil {
		slog.Warn("persona argument failed", "user_id", owner, "offer_id", offer.ID, "error", err)
		o.send(ctx, channel, NoticeFor(err))
		return
	}
	o.append(owner, offer.PersonaLabel(), text)
	o.send(ctx, channel, emitPrefix+text)
}

func (o *Orchestrator) append(owner, speaker, text string) {
	o.history.Append(owner, speaker, text)
	if o.recorder != nil {
		o.recorder.Record(owner, speaker, text)
	}
}

func (o *Orchestrator) send(ctx context.Context, channel, text string) {
	if err := o.outbound.Send(ctx, channel, text); err != nil {
		slog.Debug("outbound send failed", "channel", channel, "error", err)
	}
}

// NoticeFor converts any taxonomy error into the user-visible notice for it.
// Transports reuse it so the same failure reads the same everywhere.
func NoticeFor(err error) string {
	var fetchErr *domain.FetchError
	var validationErr *domain.ValidationError
	var completionErr *domain.CompletionError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "No offer found with that ID."
	case errors.As(err, &fetchErr):
		return "Failed to fetch URL content: " + fetchErr.Err.Error()
	case errors.As(err, &validationErr):
		return "Invalid input: " + validationErr.Error()
	case errors.As(err, &completionErr):
		return "The companies are briefly speechless (model backend error). Try again in a moment."
	default:
		return "Something went wrong handling that request."
	}
}
