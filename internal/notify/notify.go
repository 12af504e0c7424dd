package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"mime"
	"strings"
	"text/template"
	"time"

	"github.com/spigell/talent-screener/internal/candidate"
)

const (
	// StatusSent is the delivery status of a message accepted for delivery.
	StatusSent = "Sent to HR"

	notProvided      = "Not provided"
	defaultSignature = "Talent Acquisition System"
)

//go:embed message.tmpl
var messageTemplate string

var bodyTemplate = template.Must(template.New("message").Parse(messageTemplate))

// Notifier delivers a candidate summary to HR and reports a delivery status.
type Notifier interface {
	Notify(ctx context.Context, s Summary) (string, error)
}

// Summary is what HR gets to know about an accepted candidate.
type Summary struct {
	ID             uint
	Name           string
	Email          string
	Phone          string
	Location       string
	Degree         string
	Role           string
	FinalScore     float64
	Experience     string
	Sex            string
	Internships    string
	CGPA           string
	Percentage10th string
	Percentage12th string
}

func NewSummary(item *candidate.Item) Summary {
	f := item.Fields
	return Summary{
		ID:             item.ID,
		Name:           orDefault(f.Name, "Unknown"),
		Email:          orDefault(f.Email, notProvided),
		Phone:          orDefault(f.Phone, notProvided),
		Location:       orDefault(f.Location, notProvided),
		Degree:         orDefault(f.Education, notProvided),
		Role:           orDefault(item.MatchedRole, candidate.DefaultMatchedRole),
		FinalScore:     item.FinalScore,
		Experience:     orDefault(f.Experience, "None"),
		Sex:            orDefault(f.Sex, notProvided),
		Internships:    orDefault(f.Internships, "None"),
		CGPA:           orDefault(f.CGPA, notProvided),
		Percentage10th: orDefault(f.Percentage10th, notProvided),
		Percentage12th: orDefault(f.Percentage12th, notProvided),
	}
}

// Message is a rendered plain text mail.
type Message struct {
	Subject string
	Body    string
}

func Render(s Summary, signature string) (Message, error) {
	if signature = strings.TrimSpace(signature); signature == "" {
		signature = defaultSignature
	}

	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, struct {
		Summary
		Signature string
	}{Summary: s, Signature: signature})
	if err != nil {
		return Message{}, fmt.Errorf("render message: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("New Candidate Match: %s for %s", s.Name, s.Role),
		Body:    body.String(),
	}, nil
}

// RFC822 renders the message with mail headers. An empty sender is left to
// the transport.
func (m Message) RFC822(from, to string) []byte {
	var b bytes.Buffer
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return b.Bytes()
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
