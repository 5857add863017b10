package debate

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/offerarena/offerarena/internal/domain"
	"github.com/offerarena/offerarena/internal/store"
)

func strPtr(s string) *string { return &s }

func seedOffer(t *testing.T, offers *store.OfferStore, owner, company string) *domain.Offer {
	t.Helper()
	offer, err := offers.Create(context.Background(), owner, domain.OfferFields{
		CompanyName:    strPtr(company),
		JobTitle:       strPtr("Product Manager"),
		Location:       strPtr("Remote"),
		JobDescription: strPtr("Shape the ads platform."),
		Package:        strPtr("200k USD"),
	})
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", company, err)
	}
	return offer
}

func TestAssembler_EmptyStateMarkers(t *testing.T) {
	t.Parallel()

	offers := store.NewOfferStore(nil)
	history := store.NewHistoryStore()
	a := NewAssembler(offers, history, 20)

	got := a.Render("user-1")
	if !strings.Contains(got, "No job offers available.") {
		t.Errorf("Missing no-offers marker:\n%s", got)
	}
	if !strings.Contains(got, "No debate has occurred yet.") {
		t.Errorf("Missing no-history marker:\n%s", got)
	}
	// Offers section always precedes the history section.
	if strings.Index(got, offersHeader) > strings.Index(got, historyHeader) {
		t.Error("Sections rendered out of order")
	}
}

func TestAssembler_RenderIsDeterministic(t *testing.T) {
	t.Parallel()

	offers := store.NewOfferStore(nil)
	history := store.NewHistoryStore()
	a := NewAssembler(offers, history, 20)

	seedOffer(t, offers, "user-1", "Acme")
	seedOffer(t, offers, "user-1", "Globex")
	history.Append("user-1", "alice", "I want remote work")
	history.Append("user-1", "Company Acme", "We are fully remote")

	first := a.Render("user-1")
	second := a.Render("user-1")
	if first != second {
		t.Error("Render is not deterministic for identical store state")
	}

	for _, want := range []string{
		"**Offer ID:** 1",
		"**Company:** Acme",
		"**Company:** Globex",
		"**Compensation Package:** 200k USD",
		"[alice]: I want remote work",
		"[Company Acme]: We are fully remote",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("Rendered context missing %q", want)
		}
	}
}

func TestAssembler_HistoryWindowBounded(t *testing.T) {
	t.Parallel()

	offers := store.NewOfferStore(nil)
	history := store.NewHistoryStore()
	a := NewAssembler(offers, history, 20)

	for i := 0; i < 25; i++ {
		history.Append("user-1", "alice", "message "+strconv.Itoa(i))
	}

	got := a.Render("user-1")
	if strings.Contains(got, "[alice]: message 4\n") {
		t.Error("Entry outside the 20-entry window was rendered")
	}
	if !strings.Contains(got, "[alice]: message 5") || !strings.Contains(got, "[alice]: message 24") {
		t.Error("Window does not cover the most recent 20 entries")
	}
}

func TestAssembler_NotesRendered(t *testing.T) {
	t.Parallel()

	offers := store.NewOfferStore(nil)
	history := store.NewHistoryStore()
	a := NewAssembler(offers, history, 20)

	seedOffer(t, offers, "user-1", "Acme")
	if _, err := offers.AppendNote("user-1", "1", "signing bonus negotiable"); err != nil {
		t.Fatalf("AppendNote failed: %v", err)
	}

	got := a.Render("user-1")
	if !strings.Contains(got, "**Additional Information:** signing bonus negotiable") {
		t.Errorf("Note not rendered:\n%s", got)
	}
}
