// Package debate implements the debate orchestrator: context assembly,
// persona prompting, the per-user conversational state machine, and the
// interactive offer-creation flow.
package debate

import (
	"fmt"
	"strings"

	"github.com/offerarena/offerarena/internal/store"
)

const (
	offersHeader  = "### Current Job Offers Under Consideration ###\n"
	historyHeader = "### Debate History ###\n"

	noOffersMarker  = "No job offers available.\n"
	noHistoryMarker = "No debate has occurred yet."
)

// Assembler renders one user's offers and recent debate history into the
// textual context fed to the completion gateway. It is a pure function of
// store state: identical contents always render identical text.
type Assembler struct {
	offers  *store.OfferStore
	history *store.HistoryStore
	window  int
}

// NewAssembler creates an assembler. window bounds how many history entries
// are rendered; prompts would otherwise grow without limit.
func NewAssembler(offers *store.OfferStore, history *store.HistoryStore, window int) *Assembler {
	return &Assembler{
		offers:  offers,
		history: history,
		window:  window,
	}
}

// Render produces the two labeled context sections in fixed order: the
// enumeration of live offers, then the bounded debate history as
// "[speaker]: text" lines, oldest first.
func (a *Assembler) Render(owner string) string {
	sections := []string{offersHeader}
	offers := a.offers.List(owner)
	if len(offers) == 0 {
		sections = append(sections, noOffersMarker)
	} else {
		for _, o := range offers {
			notes := "None"
			if len(o.ExtraNotes) > 0 {
				notes = strings.Join(o.ExtraNotes, "\n    ")
			}
			sections = append(sections, fmt.Sprintf(
				"**Offer ID:** %s\n"+
					"**Company:** %s\n"+
					"**Job Title:** %s\n"+
					"**Location:** %s\n"+
					"**Job Description:** %s\n"+
					"**Compensation Package:** %s\n"+
					"**Additional Information:** %s\n",
				o.ID, o.CompanyName, o.JobTitle, o.Location, o.JobDescription, o.Package, notes,
			))
		}
	}
	offersSummary := strings.Join(sections, "\n"+strings.Repeat("-", 40))

	lines := []string{historyHeader}
	entries := a.history.Recent(owner, a.window)
	if len(entries) == 0 {
		lines = append(lines, noHistoryMarker)
	} else {
		for _, e := range entries {
			lines = append(lines, fmt.Sprintf("[%s]: %s", e.Speaker, e.Text))
		}
	}

	return offersSummary + "\n\n" + strings.Repeat("=", 40) + "\n\n" + strings.Join(lines, "\n")
}
