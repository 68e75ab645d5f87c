package questions

import "math/rand"

// Question is one scripted interview prompt. Questions are static
// configuration; they are never created or mutated at runtime.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// IntroID is the sentinel id under which the pre-interview
// "are you ready" exchange is logged. It is distinct from question ids.
const IntroID = "Intro"

// IntroPrompt is narrated when the candidate confirms they want to start.
const IntroPrompt = "Hello, are you ready to start your interview?"

// ClosingPrompt is narrated after the final answer is submitted.
const ClosingPrompt = "Thank you for completing your practice interview. Your analysis will be generated shortly."

// defaultSet is used when an interview type has no dedicated question set.
var defaultSet = []Question{
	{ID: "1", Text: "Tell me a little about yourself."},
	{ID: "2", Text: "What motivated you to apply for this role?"},
	{ID: "3", Text: "Can you describe a challenge you faced and how you handled it?"},
	{ID: "4", Text: "Tell me about a project or experience you are proud of."},
	{ID: "5", Text: "Is there anything else you would like us to know about you?"},
}

// sets maps interview type ids to their question sets. Types without an
// entry fall back to the default behavioral set.
var sets = map[string][]Question{
	"behavioral-general": defaultSet,
	"behavioral-leadership": {
		{ID: "1", Text: "Tell me about a time you led a team through a difficult situation."},
		{ID: "2", Text: "How do you handle underperformance on your team?"},
		{ID: "3", Text: "Describe a decision you made that was unpopular. How did you handle it?"},
		{ID: "4", Text: "How do you balance delegation with staying hands-on?"},
		{ID: "5", Text: "Tell me about a time you had to manage up."},
	},
	"behavioral-teamwork": {
		{ID: "1", Text: "Describe a time you worked with a difficult colleague."},
		{ID: "2", Text: "Tell me about a cross-functional project you contributed to."},
		{ID: "3", Text: "How do you handle disagreements about technical direction?"},
		{ID: "4", Text: "Describe a time you helped a teammate who was struggling."},
		{ID: "5", Text: "What role do you usually take on a team, and why?"},
	},
	"frontend-engineering": {
		{ID: "1", Text: "Walk me through how you would optimize the load time of a slow web page."},
		{ID: "2", Text: "How do you decide between client-side and server-side rendering?"},
		{ID: "3", Text: "Describe how you approach accessibility in your work."},
		{ID: "4", Text: "Tell me about a tricky browser compatibility issue you solved."},
		{ID: "5", Text: "How do you manage state in a large frontend application?"},
	},
	"backend-engineering": {
		{ID: "1", Text: "Walk me through the design of an API you built."},
		{ID: "2", Text: "How do you approach database schema design for a new feature?"},
		{ID: "3", Text: "Describe a production incident you debugged and what you learned."},
		{ID: "4", Text: "How do you handle backwards compatibility when changing an API?"},
		{ID: "5", Text: "Tell me about a time you had to scale a service under load."},
	},
	"fullstack-engineering": {
		{ID: "1", Text: "Describe an end-to-end feature you shipped, from database to UI."},
		{ID: "2", Text: "How do you decide where logic belongs between the client and the server?"},
		{ID: "3", Text: "Tell me about a time you had to debug an issue that crossed the stack."},
		{ID: "4", Text: "How do you keep frontend and backend contracts in sync?"},
		{ID: "5", Text: "What trade-offs have you made between shipping fast and shipping well?"},
	},
	"infrastructure": {
		{ID: "1", Text: "Walk me through a deployment pipeline you built or improved."},
		{ID: "2", Text: "How do you approach monitoring and alerting for a new service?"},
		{ID: "3", Text: "Describe an outage you responded to and how you ran the incident."},
		{ID: "4", Text: "How do you manage infrastructure as code across environments?"},
		{ID: "5", Text: "Tell me about a cost or capacity problem you solved."},
	},
	"ai-ml": {
		{ID: "1", Text: "Walk me through a machine learning system you took to production."},
		{ID: "2", Text: "How do you evaluate whether a model is good enough to ship?"},
		{ID: "3", Text: "Describe how you would debug a model whose quality regressed."},
		{ID: "4", Text: "How do you handle data drift after deployment?"},
		{ID: "5", Text: "Tell me about a time you chose a simpler approach over a model."},
	},
	"cybersecurity": {
		{ID: "1", Text: "How do you approach threat modeling for a new system?"},
		{ID: "2", Text: "Describe a vulnerability you found and how it was remediated."},
		{ID: "3", Text: "How do you balance security requirements against delivery pressure?"},
		{ID: "4", Text: "Walk me through how you would respond to a suspected breach."},
		{ID: "5", Text: "Tell me about a security review you performed on someone else's design."},
	},
}

// transitions are spoken between an answer and the next question. One is
// picked uniformly at random; immediate repeats are allowed.
var transitions = []string{
	"Thank you. Let's move on to the next question.",
	"I see. Moving on.",
	"Got it, thank you for sharing that.",
	"Interesting. Let's continue.",
	"Okay, let's go to the next one.",
	"Thanks. Here is your next question.",
}

// ForType returns the question set for the given interview type, falling
// back to the default behavioral set for unknown or empty types.
func ForType(interviewType string) []Question {
	if qs, ok := sets[interviewType]; ok {
		return qs
	}
	return defaultSet
}

// Transitions returns the configured transition line pool.
func Transitions() []string {
	return transitions
}

// RandomTransition picks a transition line uniformly at random.
func RandomTransition(rng *rand.Rand) string {
	if rng == nil {
		return transitions[rand.Intn(len(transitions))]
	}
	return transitions[rng.Intn(len(transitions))]
}

// TextFor maps a question id back to its text for report prompts. The intro
// sentinel id resolves to the intro prompt.
func TextFor(interviewType, questionID string) string {
	if questionID == IntroID {
		return "Are you ready to start your interview?"
	}
	for _, q := range ForType(interviewType) {
		if q.ID == questionID {
			return q.Text
		}
	}
	return "Unknown question"
}
