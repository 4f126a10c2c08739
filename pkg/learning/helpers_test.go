package learning

func sampleExamples() []Example {
	return []Example{
		{"URGENT: Verify Your Account", "Your account has been compromised. Click here immediately to verify your identity or your account will be suspended.", Phishing},
		{"Security Alert: Unusual Activity Detected", "We detected suspicious login attempts. Confirm your identity now to prevent account closure.", Phishing},
		{"Congratulations! You've Won $1,000,000", "You have been selected as our grand prize winner! Claim your prize now by providing your bank details.", Phishing},
		{"Password Expiration Notice", "Your password will expire in 2 hours. Click here immediately to reset it or lose access.", Phishing},
		{"Package Delivery Failed", "We attempted to deliver your package but failed. Click here and confirm your address and pay the fee.", Phishing},
		{"IRS: Tax Refund Approved", "You're eligible for a tax refund. Click here to claim it by providing your bank account details.", Phishing},
		{"Your Monthly Statement is Ready", "Your account statement for December is now available. Log into your account to view your transactions.", Legitimate},
		{"Team Meeting Tomorrow", "Reminder: our weekly team meeting is scheduled for tomorrow at 10 AM. Please review the agenda.", Legitimate},
		{"Quarterly Report Draft", "Attached is the draft of the quarterly report. Comments welcome before the team meeting on Friday.", Legitimate},
		{"Lunch on Thursday", "Are you free for lunch on Thursday? The new cafe near the office has good reviews.", Legitimate},
		{"Project Kickoff Agenda", "The project kickoff agenda is attached. We will cover milestones, staffing and the schedule.", Legitimate},
		{"Library Book Due Soon", "The book you borrowed is due next week. You can renew it online from the library catalog.", Legitimate},
	}
}

func corpusOf(examples []Example) ([]string, []Label) {
	docs := make([]string, len(examples))
	labels := make([]Label, len(examples))
	for i, ex := range examples {
		docs[i] = Document(ex.Subject, ex.Body)
		labels[i] = ex.Label
	}
	return docs, labels
}
