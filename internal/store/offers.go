// Package store provides the in-memory offer and debate-history stores.
//
// All state is volatile by design: the arena is a conversational toy and
// loses everything on restart.
package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/offerarena/offerarena/internal/domain"
	"github.com/offerarena/offerarena/internal/scrape"
)

// OfferStore keeps each user's live offers. Ids are small numeric strings,
// unique among a single owner's live offers only.
type OfferStore struct {
	mu      sync.RWMutex
	offers  map[string]map[string]*domain.Offer
	order   map[string][]string
	fetcher scrape.Fetcher
}

// NewOfferStore creates an offer store. The fetcher resolves description
// fields that arrive as URLs; it may be nil in tests that never pass URLs.
func NewOfferStore(fetcher scrape.Fetcher) *OfferStore {
	return &OfferStore{
		offers:  make(map[string]map[string]*domain.Offer),
		order:   make(map[string][]string),
		fetcher: fetcher,
	}
}

// Create allocates the next unused numeric id for owner and stores a new
// offer. A description that is a valid absolute URL is replaced by the
// fetched page text; if the fetch fails, no offer is created.
func (s *OfferStore) Create(ctx context.Context, owner string, fields domain.OfferFields) (*domain.Offer, error) {
	if fields.CompanyName == nil || *fields.CompanyName == "" {
		return nil, &domain.ValidationError{Field: "company_name", Reason: "must not be empty"}
	}

	description := stringValue(fields.JobDescription)
	resolved, err := s.resolveDescription(ctx, description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offers[owner]; !ok {
		s.offers[owner] = make(map[string]*domain.Offer)
	}

	// Start at len+1 and walk forward past ids still held by live offers.
	id := strconv.Itoa(len(s.offers[owner]) + 1)
	for _, taken := s.offers[owner][id]; taken; _, taken = s.offers[owner][id] {
		n, _ := strconv.Atoi(id)
		id = strconv.Itoa(n + 1)
	}

	offer := &domain.Offer{
		ID:             id,
		OwnerUserID:    owner,
		CompanyName:    *fields.CompanyName,
		JobTitle:       stringValue(fields.JobTitle),
		Location:       stringValue(fields.Location),
		JobDescription: resolved,
		Package:        stringValue(fields.Package),
	}

	s.offers[owner][id] = offer
	s.order[owner] = append(s.order[owner], id)
	return cloneOffer(offer), nil
}

// Get returns the offer with the given id, or domain.ErrNotFound.
func (s *OfferStore) Get(owner, id string) (*domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offer, ok := s.offers[owner][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOffer(offer), nil
}

// Update overwrites only the supplied fields of an existing offer. The same
// URL-substitution rule as Create applies to a supplied description, and a
// failed fetch leaves the offer untouched.
func (s *OfferStore) Update(ctx context.Context, owner, id string, fields domain.OfferFields) (*domain.Offer, error) {
	var resolved string
	if fields.JobDescription != nil {
		var err error
		resolved, err = s.resolveDescription(ctx, *fields.JobDescription)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[owner][id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if fields.CompanyName != nil {
		offer.CompanyName = *fields.CompanyName
	}
	if fields.JobTitle != nil {
		offer.JobTitle = *fields.JobTitle
	}
	if fields.Location != nil {
		offer.Location = *fields.Location
	}
	if fields.JobDescription != nil {
		offer.JobDescription = resolved
	}
	if fields.Package != nil {
		offer.Package = *fields.Package
	}
	return cloneOffer(offer), nil
}

// AppendNote appends one free-form note to an existing offer.
func (s *OfferStore) AppendNote(owner, id, note string) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[owner][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	offer.ExtraNotes = append(offer.ExtraNotes, note)
	return cloneOffer(offer), nil
}

// Delete removes an offer and returns its prior value, or domain.ErrNotFound.
// History entries that mention the offer's persona are left as they are.
func (s *OfferStore) Delete(owner, id string) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[owner][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.offers[owner], id)

	ids := s.order[owner]
	for i, oid := range ids {
		if oid == id {
			s.order[owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return cloneOffer(offer), nil
}

// List returns the owner's live offers in creation order. Unknown owners
// have an empty offer set, never an error.
func (s *OfferStore) List(owner string) []*domain.Offer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Offer, 0, len(s.order[owner]))
	for _, id := range s.order[owner] {
		if offer, ok := s.offers[owner][id]; ok {
			out = append(out, cloneOffer(offer))
		}
	}
	return out
}

func (s *OfferStore) resolveDescription(ctx context.Context, description string) (string, error) {
	if !scrape.IsURL(description) {
		return description, nil
	}
	return s.fetcher.Fetch(ctx, description)
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func cloneOffer(o *domain.Offer) *domain.Offer {
	c := *o
	c.ExtraNotes = append([]string(nil), o.ExtraNotes...)
	return &c
}
