// Package contact accepts contact-form messages and serves the static contact page.
package contact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NoticeSent is shown after a message is accepted.
const NoticeSent = "Message sent successfully! We'll get back to you soon."

var ErrIncomplete = errors.New("name, email, subject and message are required")

type Message struct {
	ID        uuid.UUID `json:"id"`
	ClientID  string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

//go:generate mockgen -source=contact.go -destination=mock_repository.go -package=contact

type Repository interface {
	Save(ctx context.Context, m Message) error
}

type Channel struct {
	Title       string   `json:"title"`
	Details     []string `json:"details"`
	Description string   `json:"description"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Info struct {
	Channels []Channel `json:"channels"`
	FAQs     []FAQ     `json:"faqs"`
}

var info = Info{
	Channels: []Channel{
		{Title: "Phone", Details: []string{"+91 98765 43210", "+91 11 4567 8901"}, Description: "Mon-Sat from 9am to 7pm IST"},
		{Title: "Email", Details: []string{"info@hamarabooks.in", "support@hamarabooks.in"}, Description: "Online support"},
		{Title: "Address", Details: []string{"123 Book Street, Connaught Place", "New Delhi - 110001, India"}, Description: "Visit our store"},
	},
	FAQs: []FAQ{
		{Question: "How long does shipping take?", Answer: "Standard shipping takes 3-7 business days across India. Express shipping is available for 1-3 business days in major cities."},
		{Question: "Can I return a book?", Answer: "Yes, we accept returns within 15 days of purchase. Books must be in original condition."},
		{Question: "Do you offer Cash on Delivery (COD)?", Answer: "Yes! We offer Cash on Delivery for orders across India. COD charges may apply for orders below ₹500."},
		{Question: "How can I track my order?", Answer: "Once your order ships, you'll receive a tracking number via SMS and email to monitor your package."},
		{Question: "Do you have a physical store?", Answer: "Yes! Visit us at Connaught Place, New Delhi. We're open Monday-Saturday, 10am-8pm."},
		{Question: "What payment methods do you accept?", Answer: "We accept UPI, Credit/Debit Cards, Net Banking, Wallets, and Cash on Delivery."},
	},
}
