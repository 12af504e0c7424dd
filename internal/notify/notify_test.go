package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/spigell/talent-screener/internal/candidate"
)

func acceptedItem() *candidate.Item {
	item := candidate.New("task", "ann.txt", "")
	item.ID = 9
	item.MatchedRole = "Data Scientist"
	item.FinalScore = 72.46
	item.Fields.Name = "Ann Lee"
	item.Fields.Email = "ann@example.com"
	item.Fields.Education = "MSc Statistics"
	return item
}

func TestNewSummaryDefaults(t *testing.T) {
	s := NewSummary(candidate.New("task", "x.txt", ""))

	if s.Name != "Unknown" || s.Email != notProvided || s.Experience != "None" || s.Internships != "None" {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if s.Role != candidate.DefaultMatchedRole {
		t.Fatalf("unexpected role %q", s.Role)
	}
}

func TestRender(t *testing.T) {
	msg, err := Render(NewSummary(acceptedItem()), "")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if msg.Subject != "New Candidate Match: Ann Lee for Data Scientist" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}

	for _, want := range []string{
		"role of Data Scientist with a score of 72.5%",
		"- Candidate Email: ann@example.com",
		"- Degree: MSc Statistics",
		"- Candidate Phone: Not provided",
		defaultSignature,
	} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body misses %q:\n%s", want, msg.Body)
		}
	}
}

func TestRFC822(t *testing.T) {
	raw := string(Message{Subject: "Hi Zoë", Body: "a\nb"}.RFC822("bot@example.com", "hr@example.com"))

	if !strings.Contains(raw, "From: bot@example.com\r\n") || !strings.Contains(raw, "To: hr@example.com\r\n") {
		t.Fatalf("missing headers:\n%s", raw)
	}
	if !strings.Contains(raw, "Subject: =?utf-8?q?") {
		t.Fatalf("expected encoded subject:\n%s", raw)
	}
	if !strings.HasSuffix(raw, "\r\n\r\na\r\nb") {
		t.Fatalf("unexpected body:\n%q", raw)
	}

	if strings.Contains(string(Message{}.RFC822("", "hr@example.com")), "From:") {
		t.Fatal("expected no From header for empty sender")
	}
}

func TestSMTPNotify(t *testing.T) {
	original := sendMail
	defer func() { sendMail = original }()

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	core, observed := observer.New(zapcore.InfoLevel)
	n, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", User: "bot@example.com", Password: "pw"}, "hr@example.com", "Acme", zap.New(core))
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}

	status, err := n.Notify(context.Background(), NewSummary(acceptedItem()))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if status != StatusSent {
		t.Fatalf("unexpected status %q", status)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "bot@example.com" || len(gotTo) != 1 || gotTo[0] != "hr@example.com" {
		t.Fatalf("unexpected envelope: %s %s %v", gotAddr, gotFrom, gotTo)
	}
	if !strings.Contains(gotMsg, "Best Regards,\r\nAcme") {
		t.Fatalf("unexpected message:\n%s", gotMsg)
	}
	if observed.FilterMessage("email sent").Len() != 1 {
		t.Fatal("expected email sent log entry")
	}
}

func TestSMTPNotifyError(t *testing.T) {
	original := sendMail
	defer func() { sendMail = original }()
	sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}

	n, err := NewSMTP(SMTPConfig{Host: "smtp.example.com"}, "hr@example.com", "", nil)
	if err != nil {
		t.Fatalf("new smtp: %v", err)
	}

	if _, err := n.Notify(context.Background(), NewSummary(acceptedItem())); err == nil || !strings.Contains(err.Error(), "535") {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestNewSMTPValidation(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{}, "hr@example.com", "", nil); err == nil {
		t.Fatal("expected error without host")
	}
	if _, err := NewSMTP(SMTPConfig{Host: "h"}, "", "", nil); err == nil {
		t.Fatal("expected error without recipient")
	}
}

func TestGmailNotify(t *testing.T) {
	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/gmail/v1/users/me/messages/send" {
			http.Error(w, "unexpected request "+r.URL.Path, http.StatusNotFound)
			return
		}
		var msg gmail.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw = msg.Raw
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gmail.Message{Id: "msg-1"})
	}))
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("gmail service: %v", err)
	}

	g, err := newGmail(svc, "", "hr@example.com", "", nil)
	if err != nil {
		t.Fatalf("new gmail: %v", err)
	}

	status, err := g.Notify(context.Background(), NewSummary(acceptedItem()))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if status != StatusSent {
		t.Fatalf("unexpected status %q", status)
	}

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode raw message: %v", err)
	}
	if !strings.Contains(string(decoded), "To: hr@example.com") {
		t.Fatalf("unexpected raw message:\n%s", decoded)
	}
}

func TestGmailNotifyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("gmail service: %v", err)
	}

	g, err := newGmail(svc, "", "hr@example.com", "", nil)
	if err != nil {
		t.Fatalf("new gmail: %v", err)
	}

	if _, err := g.Notify(context.Background(), NewSummary(acceptedItem())); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewGmailMissingCredentials(t *testing.T) {
	_, err := NewGmail(context.Background(), GmailConfig{CredentialsFile: "/nonexistent/credentials.json", TokenFile: "t"}, "hr@example.com", "", nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLogNotify(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	status, err := NewLog("", zap.New(core)).Notify(context.Background(), NewSummary(acceptedItem()))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if status != StatusDryRun {
		t.Fatalf("unexpected status %q", status)
	}

	entries := observed.FilterMessage("dry run notification").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["subject"]; got != "New Candidate Match: Ann Lee for Data Scientist" {
		t.Fatalf("unexpected subject field %v", got)
	}
}
