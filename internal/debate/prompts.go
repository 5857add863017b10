package debate

import (
	"fmt"

	"github.com/offerarena/offerarena/internal/domain"
)

const personaFraming = "You are facilitating a competitive hiring debate between multiple companies trying to recruit a candidate.\n" +
	"Each company must respond to prior arguments made by competitors while emphasizing its unique advantages.\n" +
	"The candidate has shared their preferences and concerns, which should be prioritized when crafting responses.\n" +
	"If the candidate has just asked a question, companies must address it directly before presenting their own arguments.\n" +
	"Stay in-character as the 'debate organizer,' ensuring companies remain persuasive and relevant.\n"

const advisorFraming = "You are an expert career advisor helping a candidate choose between multiple job offers. " +
	"Your goal is to provide a personalized recommendation based on the candidate's stated priorities " +
	"and the arguments presented by competing companies.\n\n" +
	"Carefully analyze:\n" +
	"1. The candidate's preferences, concerns, and priorities mentioned in the debate.\n" +
	"2. The strengths and weaknesses of each company's offer.\n" +
	"3. How well each company has addressed the candidate's concerns.\n\n" +
	"Your response should be clear, concise, and directly reference what the candidate and companies have discussed."

// personaPrompts builds the system and user prompt for one offer's persona,
// grounded in the full rendered context so later personas in a round can
// rebut the arguments appended just before them.
func personaPrompts(offer *domain.Offer, context string) (system, user string) {
	system = personaFraming + "\nContext so far:\n" + context + "\n"
	user = fmt.Sprintf(
		"Generate a persuasive counter-argument on behalf of '%s' (offer ID: %s).\n"+
			"1. If the candidate has asked a question, begin by answering it concisely and convincingly.\n"+
			"2. Respond to competing companies' arguments, pointing out weaknesses or gaps in their offers.\n"+
			"3. Emphasize how your offer uniquely meets the candidate's stated preferences and priorities.\n"+
			"4. Address any concerns raised by the candidate, reinforcing why your company is the best choice.\n"+
			"5. Keep your response engaging and to the point, within 600 characters.\n",
		offer.CompanyName, offer.ID,
	)
	return system, user
}

// advisorPrompts builds the summarization prompt for the advise command.
func advisorPrompts(context string) (system, user string) {
	system = advisorFraming
	user = "Summarize the discussion and recommend the best job offer for the candidate. " +
		"Base your recommendation on the candidate's concerns and priorities, as well as the company arguments.\n\n" +
		"Context so far:\n" + context + "\n" +
		"Your response should be less than 600 characters and directly address what was discussed."
	return system, user
}
