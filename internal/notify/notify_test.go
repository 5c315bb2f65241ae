package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	devicedomain "school-management/backend/internal/device/domain"
	devicerepo "school-management/backend/internal/device/repository"
)

var sample = Notification{
	TenantID:  "t1",
	AccountID: "admin-1",
	Kind:      "security_alert",
	Title:     "Login blocked",
	Body:      "teacher tried to log in 900m away",
	Data:      map[string]string{"alert_id": "a1"},
}

func TestEncodeDecodeMessage(t *testing.T) {
	msg, err := EncodeMessage(sample)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	if string(msg.Key) != "admin-1" {
		t.Errorf("Key = %q, want account id", msg.Key)
	}
	got, err := DecodeMessage(msg)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if got.AccountID != sample.AccountID || got.Data["alert_id"] != "a1" || got.Body != sample.Body {
		t.Errorf("decoded = %+v", got)
	}
}

func TestNewKafkaDispatcher_Disabled(t *testing.T) {
	if d := NewKafkaDispatcher(nil, "topic"); d != nil {
		t.Error("no brokers should disable the dispatcher")
	}
	var d *KafkaDispatcher
	d.Dispatch(context.Background(), sample)
	if err := d.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	raw := string(buildMessage("from@school.edu", "to@school.edu", "Your code", "line1\nline2"))
	for _, want := range []string{"From: from@school.edu\r\n", "To: to@school.edu\r\n", "Content-Type: text/plain; charset=UTF-8\r\n", "\r\n\r\nline1\r\nline2"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestNewSMTPMailer_Disabled(t *testing.T) {
	if m := NewSMTPMailer("", 587, "", "", "x@y"); m != nil {
		t.Error("empty host should disable the mailer")
	}
	var m *SMTPMailer
	m.Send(context.Background(), "a@b", "s", "b")
}

func TestPushClient_Send(t *testing.T) {
	var got pushRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewPushClient("key", server.URL)
	tok := &devicedomain.Token{AccountID: "admin-1", DeviceID: "d1", PushToken: "fcm-123", Platform: devicedomain.PlatformAndroid}
	if err := c.Send(context.Background(), tok, sample); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.Token != "fcm-123" || got.Title != sample.Title || got.Data["alert_id"] != "a1" {
		t.Errorf("request = %+v", got)
	}
}

func TestPushClient_SendErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}))
	defer server.Close()

	tok := &devicedomain.Token{PushToken: "x"}
	err := NewPushClient("", server.URL).Send(context.Background(), tok, sample)
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Errorf("err = %v, want status=400", err)
	}
	if err := NewPushClient("", "").Send(context.Background(), tok, sample); err == nil {
		t.Error("Send without gateway URL should fail")
	}
}

type flakySender struct {
	fail map[string]bool
	sent []string
}

func (f *flakySender) Send(_ context.Context, t *devicedomain.Token, _ Notification) error {
	if f.fail[t.DeviceID] {
		return errors.New("unreachable")
	}
	f.sent = append(f.sent, t.DeviceID)
	return nil
}

func TestDeliverer_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	tokens := devicerepo.NewMemoryRepository()
	for _, d := range []string{"phone", "tablet", "web"} {
		_ = tokens.Upsert(ctx, &devicedomain.Token{AccountID: "admin-1", DeviceID: d, PushToken: "p-" + d})
	}
	sender := &flakySender{fail: map[string]bool{"tablet": true}}
	n, err := NewDeliverer(tokens, sender).Deliver(ctx, sample)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if n != 2 || len(sender.sent) != 2 {
		t.Errorf("delivered = %d (%v), want 2", n, sender.sent)
	}
}
