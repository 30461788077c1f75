package dialogue

import (
	"fmt"

	"github.com/tbxark/enquirybot/types"
)

const (
	FormReferenceURL = "https://www.ocbc.com/personal-banking/forms/overseas-property-loan-enquiry"
	FallbackContact  = "+65 6363 3333"
)

const (
	greetingText         = "Hi! I am Kelvin from OCBC mortgage, how do I address you? 😊"
	askNameText          = "How should I address you?"
	handoffText          = "Would you like my colleague to reach out to you for more detailed information? (Yes/No)"
	apologyText          = "I apologize, but I'm having trouble providing specific information about that right now. 😕"
	continueChattingText = "No problem! Feel free to ask me any other questions about OCBC overseas property loans. You can also start a new conversation anytime with /start"
	salutationText       = "Please select your salutation:"
	fullNameText         = "Great! Could you please share your full name?"
	editText             = "No problem! Let's update your information. 📝\n\nPlease enter your full name again:"
	bestTimeText         = "Perfect! 🎯\n\nWhen would be the best time for our representative to contact you? ⏰"
	enquiryText          = "Got it! 📝\n\nWhat's the nature of your enquiry? 🤔"
	cancelledText        = "Form submission cancelled. You can start over anytime with /start 🔄"
	timeoutText          = "I haven't heard from you in a while. Feel free to start a new conversation anytime with /start 🔄"
	chooseButtonText     = "Please pick one of the options below."

	invalidContactText = "❌ Oops! That doesn't look like a valid phone number.\n\n" +
		"Please make sure to:\n" +
		"• Start with '+' symbol\n" +
		"• Include only numbers after the '+'\n" +
		"Example: +6591234567"

	invalidEmailText = "❌ Hmm, that email address doesn't look quite right.\n\n" +
		"Please make sure:\n" +
		"• It contains '@'\n" +
		"• It ends with '.com'\n" +
		"Example: name@example.com"

	confirmOptionsText = "Please type:\n" +
		"• 'submit' to proceed with submission\n" +
		"• 'edit' to modify your details\n" +
		"• 'cancel' to start over"

	HelpText = "Here are the commands you can use:\n" +
		"/start - Start a new conversation\n" +
		"/help - Show this help message\n" +
		"/cancel - Cancel the current operation\n\n" +
		"You can also just chat with me naturally about overseas property loans!"
)

// Prompt returns the canonical prompt of a state. It is what the user sees
// when entering the state and again whenever an input is rejected there.
func Prompt(state types.State, rec types.Record) Message {
	switch state {
	case types.StateGreeting:
		return Text(greetingText)
	case types.StateCaptureName:
		return Text(askNameText)
	case types.StateFreeQuestion:
		return NiceToMeet(rec.DisplayName)
	case types.StateOfferHandoff:
		return Text(handoffText)
	case types.StateSalutation:
		return Menu(salutationText, types.Salutations)
	case types.StateFullName:
		return Text(fullNameText)
	case types.StateContact:
		return ContactPrompt(rec.FullName)
	case types.StateEmail:
		return EmailPrompt()
	case types.StateBestTime:
		return Menu(bestTimeText, types.BestTimes)
	case types.StateEnquiryNature:
		return Menu(enquiryText, types.Enquiries)
	case types.StateConfirm:
		return Confirmation(rec)
	default:
		return Text(cancelledText)
	}
}

// Menu builds a button prompt whose labels and payloads are the option values.
func Menu[C types.Choice](text string, options []C) Message {
	buttons := make([]Button, 0, len(options))
	for _, option := range options {
		buttons = append(buttons, Button{Label: string(option), Value: string(option)})
	}
	return Message{Text: text, Buttons: buttons}
}

func Greeting() Message {
	return Prompt(types.StateGreeting, types.Record{})
}

func NiceToMeet(name string) Message {
	return Text(fmt.Sprintf("Nice to meet you, %s! How can I help you with the overseas loan? 🏠", name))
}

func Apology() Message {
	return Text(apologyText)
}

func ContinueChatting() Message {
	return Text(continueChattingText)
}

func ContactPrompt(fullName string) Message {
	return Text(fmt.Sprintf("Nice to meet you, %s! 😊\n\n"+
		"Could you please share your contact number? 📱\n"+
		"Please include your country code (e.g., +65xxxxxxxx)", fullName))
}

func EmailPrompt() Message {
	return Text("Great! 👍 Now, what's your email address? 📧\nPlease provide a valid email ending with .com")
}

func InvalidContact() Message {
	return Text(invalidContactText)
}

func InvalidEmail() Message {
	return Text(invalidEmailText)
}

// ChooseButton is sent before the menu again when a button step receives text.
func ChooseButton() Message {
	return Text(chooseButtonText)
}

func Confirmation(rec types.Record) Message {
	return Text("🔍 Here's a summary of your details:\n\n" +
		types.FormatSummary(rec) + "\n" +
		"🔗 Form Reference: " + FormReferenceURL + "\n\n" +
		confirmOptionsText)
}

func ConfirmOptions() Message {
	return Text("🤔 I didn't quite get that.\n\n" + confirmOptionsText)
}

func EditRestart() Message {
	return Text(editText)
}

func Submitted(url string) Message {
	return Text("✅ Great! I've prepared your form submission.\n\n" +
		"🔗 Click here to review and submit your details:\n" + url + "\n\n" +
		"The form has been pre-filled with your information. Please review and submit it on the OCBC website.\n\n" +
		"Feel free to ask me any questions about OCBC overseas property loans! 💬")
}

func FillFailed() Message {
	return Text("I apologize, but I'm having trouble accessing the form. " +
		"Please try again or contact OCBC directly at " + FallbackContact + ".")
}

func Cancelled() Message {
	return Text(cancelledText)
}

func TimedOut() Message {
	return Text(timeoutText)
}

func ErrorMessage(err error) Message {
	return Text(fmt.Sprintf("I apologize, but I encountered an error (%v). Please try again or contact OCBC directly at %s.", err, FallbackContact))
}

// QuestionFailed is sent when a question asked after the intake cannot be answered.
func QuestionFailed() Message {
	return Text("I'm having trouble processing your question right now. 😕\n" +
		"Please try again later or contact OCBC directly for immediate assistance.")
}
