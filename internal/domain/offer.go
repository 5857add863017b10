// Package domain contains core domain types for the Offer Arena application.
package domain

// Offer is one negotiating party's pitch: a job offer competing for the
// candidate against every other live offer owned by the same user.
type Offer struct {
	ID             string   `json:"id"`
	OwnerUserID    string   `json:"owner_user_id"`
	CompanyName    string   `json:"company_name"`
	JobTitle       string   `json:"job_title"`
	Location       string   `json:"location"`
	JobDescription string   `json:"job_description"`
	Package        string   `json:"package"`
	ExtraNotes     []string `json:"extra_notes,omitempty"`
}

// PersonaLabel returns the speaker label used for this offer's voice in the
// debate history.
func (o *Offer) PersonaLabel() string {
	return "Company " + o.CompanyName
}

// OfferFields carries the mutable fields of an offer for create and update
// operations. Nil pointers on update mean "keep the prior value".
type OfferFields struct {
	CompanyName    *string `json:"company_name,omitempty"`
	JobTitle       *string `json:"job_title,omitempty"`
	Location       *string `json:"location,omitempty"`
	JobDescription *string `json:"job_description,omitempty"`
	Package        *string `json:"package,omitempty"`
}
