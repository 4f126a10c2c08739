package dataset

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/zpam/phish-filter/pkg/learning"
)

// template placeholders
const (
	phAmount  = "{amount}"
	phHours   = "{hours}"
	phName    = "{name}"
	phCompany = "{company}"
)

// Generator produces synthetic labeled emails from templates. The same seed
// yields the same sequence.
type Generator struct {
	rand *rand.Rand

	phishingSubjects []string
	phishingBodies   []string
	legitSubjects    []string
	legitBodies      []string
	phishingDomains  []string
	legitDomains     []string
	names            []string
	companies        []string
}

// NewGenerator creates a generator seeded with seed
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rand: rand.New(rand.NewSource(seed)),

		phishingSubjects: []string{
			"URGENT: Verify Your Account",
			"Security Alert: Unusual Activity Detected",
			"Your Bank Account is Locked",
			"Final Warning: Account Suspended",
			"Congratulations! You've Won {amount}",
			"Lottery Winner Notification",
			"Password Expiration Notice",
			"Suspicious Login Attempt",
			"Package Delivery Failed",
			"Package Held at Customs",
			"IRS: Tax Refund Approved",
			"Stimulus Check Notification",
		},
		phishingBodies: []string{
			"Your account has been compromised. Click here immediately to verify your identity or your account will be suspended within {hours} hours.",
			"We detected suspicious login attempts from unknown locations. Confirm your identity now to prevent account closure.",
			"Action required! Your account has been locked due to security reasons. Update your information here to restore access.",
			"You have been selected as our grand prize winner! Claim your prize of {amount} now by providing your bank details for direct deposit.",
			"Your password will expire in {hours} hours. Click here immediately to reset it or you'll lose access to your account permanently.",
			"We attempted to deliver your package but failed. Click here and confirm your address and pay the {amount} redelivery fee.",
			"You're eligible for a {amount} tax refund. Click here to claim it by providing your bank account details and SSN.",
			"Dear customer, {company} needs you to confirm your banking details immediately. Failure to do so will result in account termination.",
		},
		legitSubjects: []string{
			"Your Monthly Statement is Ready",
			"Low Balance Notification",
			"Team Meeting Tomorrow",
			"Quarterly report attached",
			"Project update - Phase 2 complete",
			"Your Order Has Shipped",
			"Lunch invitation",
			"Weekly Activity Summary",
			"Invoice from {company}",
			"New Comment on Your Post",
		},
		legitBodies: []string{
			"Your account statement for this month is now available. Log into your account to view your transactions and balance.",
			"Reminder: Our weekly team meeting is scheduled for tomorrow at 10 AM. Please review the agenda before we meet. Thanks, {name}",
			"Please find attached the quarterly report for your review. Revenue grew by 15 percent. Let me know if you have questions. {name}",
			"Your order from {company} has shipped and should arrive within 3 business days. Track it from your order history.",
			"We're planning a team lunch this Friday at 12:30 PM. Let me know if you can make it. Regards, {name}",
			"You walked 42,000 steps this week! That's 15% more than last week. Keep up the great work!",
			"Attached is the invoice for {amount} covering last month's consulting work for {company}. Payment terms are 30 days.",
			"{name} and 5 others commented on your recent post. See what they said.",
		},
		phishingDomains: []string{
			"secure-verify-account.com", "bank-alert-center.net", "prize-claims.org",
			"parcel-redelivery.info", "tax-refund-gov.co", "login-update.biz",
		},
		legitDomains: []string{
			"gmail.com", "outlook.com", "company.com", "university.edu",
			"bank.com", "shop.example", "startup.io",
		},
		names: []string{
			"John Smith", "Jane Doe", "Mike Johnson", "Sarah Wilson", "David Brown",
			"Lisa Garcia", "Emily Davis", "Michael Anderson",
		},
		companies: []string{
			"Global Dynamics", "Innovation Labs", "Future Systems", "Cloud Services Ltd",
			"Smart Technologies", "NextGen Solutions",
		},
	}
}

// Example generates one labeled example
func (g *Generator) Example(label learning.Label) learning.Example {
	if label == learning.Phishing {
		return learning.Example{
			Subject: g.fill(g.choice(g.phishingSubjects)),
			Body:    g.fill(g.choice(g.phishingBodies)),
			Label:   learning.Phishing,
		}
	}
	return learning.Example{
		Subject: g.fill(g.choice(g.legitSubjects)),
		Body:    g.fill(g.choice(g.legitBodies)),
		Label:   learning.Legitimate,
	}
}

// Examples generates count examples of which round(count*phishingRatio) are
// phishing, shuffled.
func (g *Generator) Examples(count int, phishingRatio float64) ([]learning.Example, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be greater than 0")
	}
	if phishingRatio < 0 || phishingRatio > 1 {
		return nil, fmt.Errorf("phishing ratio must be between 0 and 1")
	}

	phishing := int(float64(count)*phishingRatio + 0.5)
	out := make([]learning.Example, 0, count)
	for i := 0; i < count; i++ {
		label := learning.Legitimate
		if i < phishing {
			label = learning.Phishing
		}
		out = append(out, g.Example(label))
	}
	g.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// EML renders ex as an RFC 5322 message with a sender matching its label
func (g *Generator) EML(ex learning.Example) string {
	var from string
	if ex.Label == learning.Phishing {
		users := []string{"security", "noreply", "support", "alerts", "claims"}
		from = fmt.Sprintf("%s@%s", g.choice(users), g.choice(g.phishingDomains))
	} else {
		parts := strings.Fields(strings.ToLower(g.choice(g.names)))
		from = fmt.Sprintf("%s.%s@%s", parts[0], parts[1], g.choice(g.legitDomains))
	}

	date := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC).
		Add(time.Duration(g.rand.Intn(365*24)) * time.Hour)

	return fmt.Sprintf("From: %s\r\nTo: user@example.com\r\nSubject: %s\r\nDate: %s\r\nMessage-ID: <%d@generator.local>\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		ex.Subject,
		date.Format("Mon, 02 Jan 2006 15:04:05 -0700"),
		g.rand.Int63(),
		ex.Body,
	)
}

func (g *Generator) fill(s string) string {
	r := strings.NewReplacer(
		phAmount, fmt.Sprintf("$%d", (g.rand.Intn(500)+1)*10),
		phHours, fmt.Sprintf("%d", []int{2, 12, 24, 48, 72}[g.rand.Intn(5)]),
		phName, g.choice(g.names),
		phCompany, g.choice(g.companies),
	)
	return r.Replace(s)
}

func (g *Generator) choice(items []string) string {
	return items[g.rand.Intn(len(items))]
}
