package email

import "fmt"

// Template builders. Each returns a fully rendered Message; callers only
// supply the facts. Keeping the wording here means a transition handler can
// never half-render an email.

func Acceptance(to, studentName, courseName, universityName, offerLetterURL string) Message {
	body := fmt.Sprintf(
		"Dear %s,\n\nCongratulations! Your application for %s at %s has been accepted.\n\nYour offer letter is available here: %s\n\nBest regards,\nThe Admissions Team",
		studentName, courseName, universityName, offerLetterURL,
	)
	return Message{
		Template: "acceptance",
		To:       to,
		Subject:  fmt.Sprintf("Offer of admission: %s", courseName),
		Body:     body,
	}
}

func Rejection(to, studentName, courseName, universityName, reason string) Message {
	body := fmt.Sprintf(
		"Dear %s,\n\nWe regret to inform you that your application for %s at %s was not successful.\n\nReason: %s\n\nBest regards,\nThe Admissions Team",
		studentName, courseName, universityName, reason,
	)
	return Message{
		Template: "rejection",
		To:       to,
		Subject:  fmt.Sprintf("Application decision: %s", courseName),
		Body:     body,
	}
}

func AgencyNewApplication(to, studentName, courseName, universityName string) Message {
	body := fmt.Sprintf(
		"A new application has been filed.\n\nStudent: %s\nCourse: %s\nUniversity: %s\n\nPlease review and forward it to the university.",
		studentName, courseName, universityName,
	)
	return Message{
		Template: "agency_new_application",
		To:       to,
		Subject:  fmt.Sprintf("New application from %s", studentName),
		Body:     body,
	}
}

func SolicitorRequestApproved(to, studentName string) Message {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour visa solicitor request has been approved. A solicitor will be in touch shortly.\n\nBest regards,\nThe Admissions Team",
		studentName,
	)
	return Message{
		Template: "solicitor_request_approved",
		To:       to,
		Subject:  "Your solicitor request has been approved",
		Body:     body,
	}
}

func SolicitorAssigned(to, solicitorName, studentName string) Message {
	body := fmt.Sprintf(
		"Dear %s,\n\nA visa case has been assigned to you.\n\nStudent: %s\n\nPlease review the case at your earliest convenience.",
		solicitorName, studentName,
	)
	return Message{
		Template: "solicitor_assigned",
		To:       to,
		Subject:  fmt.Sprintf("New visa case: %s", studentName),
		Body:     body,
	}
}

func SolicitorWillContact(to, studentName, solicitorName string) Message {
	body := fmt.Sprintf(
		"Dear %s,\n\nA solicitor has been assigned to your visa case: %s. They will reach out to you shortly.\n\nBest regards,\nThe Admissions Team",
		studentName, solicitorName,
	)
	return Message{
		Template: "solicitor_will_contact",
		To:       to,
		Subject:  "Your solicitor has been assigned",
		Body:     body,
	}
}

func PaymentConfirmation(to, studentName, serviceName string) Message {
	body := fmt.Sprintf(
		"Dear %s,\n\nYour payment for %s has been received. The service is now active on your account.\n\nBest regards,\nThe Admissions Team",
		studentName, serviceName,
	)
	return Message{
		Template: "payment_confirmation",
		To:       to,
		Subject:  fmt.Sprintf("Payment received: %s", serviceName),
		Body:     body,
	}
}
