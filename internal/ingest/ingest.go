// Package ingest turns loose inbound JSON payloads into validated
// messages. Producers disagree on field names and types, so lookup is
// path-based and tolerant; validation at the end is strict.
package ingest

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"

	"inbrief/internal/model"
)

// textKeys are the payload fields accepted for the message body, in
// preference order.
var textKeys = []string{"message_text", "text", "body"}

// NormalizeMessage maps one raw payload onto a model.Message. user_id may
// arrive as a string or a number, platform casing is ignored, and a missing
// timestamp falls back to now. Zoneless timestamps are read as UTC.
func NormalizeMessage(raw []byte, now time.Time) (model.Message, error) {
	if !gjson.ValidBytes(raw) {
		return model.Message{}, &model.ValidationError{Field: "payload", Reason: "not valid JSON"}
	}

	var msg model.Message
	msg.ID = gjson.GetBytes(raw, "id").String()

	user := gjson.GetBytes(raw, "user_id")
	switch user.Type {
	case gjson.String:
		msg.UserID = strings.TrimSpace(user.Str)
	case gjson.Number:
		msg.UserID = user.String()
	}

	msg.Platform = model.Platform(strings.ToLower(strings.TrimSpace(gjson.GetBytes(raw, "platform").String())))
	msg.ConversationID = gjson.GetBytes(raw, "conversation_id").String()

	for _, key := range textKeys {
		if v := gjson.GetBytes(raw, key); v.Exists() {
			msg.Text = v.String()
			break
		}
	}

	ts := gjson.GetBytes(raw, "timestamp")
	switch {
	case !ts.Exists():
		msg.Timestamp = now
	case ts.Type == gjson.Number:
		msg.Timestamp = time.Unix(ts.Int(), 0).UTC()
	default:
		parsed, err := parseTimestamp(ts.String())
		if err != nil {
			return model.Message{}, &model.ValidationError{Field: "timestamp", Reason: "unparseable value " + ts.String()}
		}
		msg.Timestamp = parsed
	}

	if err := model.ValidateMessage(msg); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return dateparse.ParseAny(s)
}
