// File: api/schemas/actions.go
package schemas

import (
	"fmt"
)

// ActionKind is the closed set of side effects a drafted reply may declare.
// New actions are added by extending this set and DeclaredAction.Validate,
// not by string matching on free-form tool names.
type ActionKind string

const (
	// ActionScheduleInterview accepts an interview invitation.
	ActionScheduleInterview ActionKind = "schedule-interview"
	// ActionDeclineOffer politely declines a job offer.
	ActionDeclineOffer ActionKind = "decline-offer"
	// ActionRecordContact records the employer's contact details.
	ActionRecordContact ActionKind = "record-contact"
	// ActionNeedsHumanReview flags the message as requiring human judgment
	// (salary, legal, or out-of-profile technical questions).
	ActionNeedsHumanReview ActionKind = "needs-human-review"
)

// ScheduleInterviewPayload carries the accepted interview slot.
type ScheduleInterviewPayload struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Format      string `json:"format"`
	Interviewer string `json:"interviewer,omitempty"`
}

// DeclineOfferPayload carries the declined company and the polite reason.
type DeclineOfferPayload struct {
	Company string `json:"company"`
	Reason  string `json:"reason,omitempty"`
}

// RecordContactPayload carries the employer contact details to record.
type RecordContactPayload struct {
	Email   string `json:"email"`
	Company string `json:"company"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
}

// NeedsHumanReviewPayload carries the question the drafter could not answer
// with confidence.
type NeedsHumanReviewPayload struct {
	Question string `json:"question"`
	// Confidence is the drafter's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// DeclaredAction is a tagged variant over the action kinds. Exactly the
// payload matching Kind is populated; the rest stay nil.
type DeclaredAction struct {
	Kind        ActionKind                `json:"kind"`
	Schedule    *ScheduleInterviewPayload `json:"schedule,omitempty"`
	Decline     *DeclineOfferPayload      `json:"decline,omitempty"`
	Contact     *RecordContactPayload     `json:"contact,omitempty"`
	HumanReview *NeedsHumanReviewPayload  `json:"human_review,omitempty"`
}

// Validate checks that the action carries exactly the payload its kind
// requires and that payload fields are in range. Invalid actions are
// rejected at the drafter boundary so they never reach the controller.
func (a DeclaredAction) Validate() error {
	switch a.Kind {
	case ActionScheduleInterview:
		if a.Schedule == nil {
			return fmt.Errorf("action %q missing schedule payload", a.Kind)
		}
		if a.Schedule.Date == "" || a.Schedule.Time == "" {
			return fmt.Errorf("action %q requires date and time", a.Kind)
		}
	case ActionDeclineOffer:
		if a.Decline == nil {
			return fmt.Errorf("action %q missing decline payload", a.Kind)
		}
		if a.Decline.Company == "" {
			return fmt.Errorf("action %q requires a company", a.Kind)
		}
	case ActionRecordContact:
		if a.Contact == nil {
			return fmt.Errorf("action %q missing contact payload", a.Kind)
		}
		if a.Contact.Email == "" || a.Contact.Company == "" {
			return fmt.Errorf("action %q requires email and company", a.Kind)
		}
	case ActionNeedsHumanReview:
		if a.HumanReview == nil {
			return fmt.Errorf("action %q missing human review payload", a.Kind)
		}
		if a.HumanReview.Confidence < 0 || a.HumanReview.Confidence > 1 {
			return fmt.Errorf("action %q confidence %.2f out of range [0,1]",
				a.Kind, a.HumanReview.Confidence)
		}
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}
