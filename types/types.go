package types

// State is the position of a conversation in the intake dialogue.
type State string

const (
	StateGreeting      State = "greeting"
	StateCaptureName   State = "capture_name"
	StateFreeQuestion  State = "free_question"
	StateOfferHandoff  State = "offer_handoff"
	StateSalutation    State = "salutation"
	StateFullName      State = "full_name"
	StateContact       State = "contact"
	StateEmail         State = "email"
	StateBestTime      State = "best_time"
	StateEnquiryNature State = "enquiry_nature"
	StateConfirm       State = "confirm"
	StateEnd           State = "end"
)

// States lists every dialogue state in conversation order.
var States = []State{
	StateGreeting,
	StateCaptureName,
	StateFreeQuestion,
	StateOfferHandoff,
	StateSalutation,
	StateFullName,
	StateContact,
	StateEmail,
	StateBestTime,
	StateEnquiryNature,
	StateConfirm,
	StateEnd,
}

func (s State) Terminal() bool {
	return s == StateEnd
}

// ButtonDriven reports whether the state only accepts a choice from a fixed menu.
func (s State) ButtonDriven() bool {
	switch s {
	case StateSalutation, StateBestTime, StateEnquiryNature:
		return true
	default:
		return false
	}
}

type FieldInfo struct {
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// Record is the data collected during one conversation.
type Record struct {
	DisplayName   string     `json:"display_name,omitempty"`
	Salutation    Salutation `json:"salutation,omitempty"`
	FullName      string     `json:"full_name,omitempty"`
	Contact       string     `json:"contact,omitempty"`
	Email         string     `json:"email,omitempty"`
	BestTime      BestTime   `json:"best_time,omitempty"`
	EnquiryNature Enquiry    `json:"enquiry_nature,omitempty"`
}

var formFields = []FieldInfo{
	{JSONPointer: "/salutation", DisplayName: "Salutation", Required: true},
	{JSONPointer: "/full_name", DisplayName: "Name", Required: true},
	{JSONPointer: "/contact", DisplayName: "Contact", Description: "country code and digits, e.g. +6591234567", Required: true},
	{JSONPointer: "/email", DisplayName: "Email", Description: "address ending with .com", Required: true},
	{JSONPointer: "/best_time", DisplayName: "Best Time", Required: true},
	{JSONPointer: "/enquiry_nature", DisplayName: "Nature of Enquiry", Required: true},
}

// EditableFields are the pointers re-collected when the user edits at confirmation.
var EditableFields = []string{"/full_name", "/contact", "/email", "/best_time", "/enquiry_nature"}

// Missing returns the form fields that have not been collected yet.
func (r Record) Missing() []FieldInfo {
	values := map[string]bool{
		"/salutation":     r.Salutation.Valid(),
		"/full_name":      r.FullName != "",
		"/contact":        r.Contact != "",
		"/email":          r.Email != "",
		"/best_time":      r.BestTime.Valid(),
		"/enquiry_nature": r.EnquiryNature.Valid(),
	}
	var missing []FieldInfo
	for _, field := range formFields {
		if !values[field.JSONPointer] {
			missing = append(missing, field)
		}
	}
	return missing
}

func (r Record) Complete() bool {
	return len(r.Missing()) == 0
}
