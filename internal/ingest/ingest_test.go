package ingest

import (
	"errors"
	"testing"
	"time"

	"inbrief/internal/model"
)

var now = time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)

func TestNormalizeMessage_Canonical(t *testing.T) {
	raw := []byte(`{"user_id":"user_1","platform":"whatsapp","conversation_id":"conv_1","message_text":"did the report get done?","timestamp":"2025-09-02T09:30:00Z"}`)
	msg, err := NormalizeMessage(raw, now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if msg.UserID != "user_1" || msg.Platform != model.PlatformWhatsApp {
		t.Fatalf("identity mismatch: %+v", msg)
	}
	if msg.Text != "did the report get done?" || msg.ConversationID != "conv_1" {
		t.Fatalf("content mismatch: %+v", msg)
	}
	want := time.Date(2025, 9, 2, 9, 30, 0, 0, time.UTC)
	if !msg.Timestamp.Equal(want) {
		t.Fatalf("timestamp mismatch: %v", msg.Timestamp)
	}
}

func TestNormalizeMessage_FieldAliases(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		text string
	}{
		{"text", `{"user_id":"u","platform":"email","text":"from text"}`, "from text"},
		{"body", `{"user_id":"u","platform":"email","body":"from body"}`, "from body"},
		{"message_text wins", `{"user_id":"u","platform":"email","message_text":"primary","body":"ignored"}`, "primary"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := NormalizeMessage([]byte(tc.raw), now)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if msg.Text != tc.text {
				t.Fatalf("want %q, got %q", tc.text, msg.Text)
			}
		})
	}
}

func TestNormalizeMessage_NumericUserID(t *testing.T) {
	msg, err := NormalizeMessage([]byte(`{"user_id":42,"platform":"instagram","text":"hi there"}`), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if msg.UserID != "42" {
		t.Fatalf("want 42, got %q", msg.UserID)
	}
}

func TestNormalizeMessage_PlatformCasing(t *testing.T) {
	msg, err := NormalizeMessage([]byte(`{"user_id":"u","platform":" WhatsApp ","text":"hi"}`), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if msg.Platform != model.PlatformWhatsApp {
		t.Fatalf("want whatsapp, got %q", msg.Platform)
	}
}

func TestNormalizeMessage_MissingTimestampUsesClock(t *testing.T) {
	msg, err := NormalizeMessage([]byte(`{"user_id":"u","platform":"email","text":"hi"}`), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !msg.Timestamp.Equal(now) {
		t.Fatalf("want clock fallback %v, got %v", now, msg.Timestamp)
	}
}

func TestNormalizeMessage_EpochTimestamp(t *testing.T) {
	msg, err := NormalizeMessage([]byte(`{"user_id":"u","platform":"email","text":"hi","timestamp":1756807200}`), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !msg.Timestamp.Equal(time.Unix(1756807200, 0)) {
		t.Fatalf("epoch mismatch: %v", msg.Timestamp)
	}
}

func TestNormalizeMessage_LenientTimestamp(t *testing.T) {
	msg, err := NormalizeMessage([]byte(`{"user_id":"u","platform":"email","text":"hi","timestamp":"09/02/2025 09:30:00"}`), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := time.Date(2025, 9, 2, 9, 30, 0, 0, time.UTC)
	if !msg.Timestamp.Equal(want) {
		t.Fatalf("want %v, got %v", want, msg.Timestamp)
	}
}

func TestNormalizeMessage_SuppliedID(t *testing.T) {
	msg, err := NormalizeMessage([]byte(`{"id":"m_0123456789ab","user_id":"u","platform":"email","text":"hi"}`), now)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if msg.ID != "m_0123456789ab" {
		t.Fatalf("supplied id lost: %q", msg.ID)
	}
}

func TestNormalizeMessage_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{"garbage", `{"user_id": unquoted}`, "payload"},
		{"missing user", `{"platform":"email","text":"hi"}`, "user_id"},
		{"unknown platform", `{"user_id":"u","platform":"telegram","text":"hi"}`, "platform"},
		{"empty text", `{"user_id":"u","platform":"email","text":"   "}`, "message_text"},
		{"no text key", `{"user_id":"u","platform":"email"}`, "message_text"},
		{"bad timestamp", `{"user_id":"u","platform":"email","text":"hi","timestamp":"not a date"}`, "timestamp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeMessage([]byte(tc.raw), now)
			var ve *model.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Fatalf("want field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}
