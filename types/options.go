package types

type Salutation string

const (
	SalutationMr  Salutation = "Mr"
	SalutationMrs Salutation = "Mrs"
	SalutationMdm Salutation = "Mdm"
	SalutationMs  Salutation = "Ms"
	SalutationDr  Salutation = "Dr"
)

var Salutations = []Salutation{SalutationMr, SalutationMrs, SalutationMdm, SalutationMs, SalutationDr}

func (s Salutation) Valid() bool {
	return contains(Salutations, s)
}

// BestTime is the preferred window for a call back. Values are the
// labels shown on the enquiry form.
type BestTime string

const (
	BestTimeNoPreference BestTime = "No preference"
	BestTimeMorning      BestTime = "9am - 1pm"
	BestTimeAfternoon    BestTime = "1pm - 6pm"
)

var BestTimes = []BestTime{BestTimeNoPreference, BestTimeMorning, BestTimeAfternoon}

func (b BestTime) Valid() bool {
	return contains(BestTimes, b)
}

// Enquiry is the financing region the user is asking about.
type Enquiry string

const (
	EnquiryLondon    Enquiry = "London Property Financing"
	EnquiryAustralia Enquiry = "Australia Property Financing"
	EnquiryMalaysia  Enquiry = "Malaysia Property Financing"
	EnquiryNewYork   Enquiry = "New York Property Financing"
	EnquiryTokyo     Enquiry = "Tokyo Property Financing"
	EnquiryNone      Enquiry = "None of the above"
)

var Enquiries = []Enquiry{EnquiryLondon, EnquiryAustralia, EnquiryMalaysia, EnquiryNewYork, EnquiryTokyo, EnquiryNone}

func (e Enquiry) Valid() bool {
	return contains(Enquiries, e)
}

// Choice is a single entry of a closed option set.
type Choice interface {
	~string
}

// ParseChoice matches value exactly against options.
func ParseChoice[C Choice](options []C, value string) (C, bool) {
	for _, option := range options {
		if string(option) == value {
			return option, true
		}
	}
	var zero C
	return zero, false
}

func contains[C Choice](options []C, value C) bool {
	_, ok := ParseChoice(options, string(value))
	return ok
}
