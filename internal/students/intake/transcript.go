package intake

import (
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 strings, a few common layouts and Unix milliseconds.
func ParseTime(v any) *time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			parsed := time.UnixMilli(ms).UTC()
			return &parsed
		}
	case float64:
		parsed := time.UnixMilli(int64(t)).UTC()
		return &parsed
	}
	return nil
}

// ParseTranscript reads a list of message objects. Entries that are not objects are skipped.
func ParseTranscript(v any) []TranscriptMessage {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]TranscriptMessage, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := newPayload(obj)
		ts := ParseTime(p.value("timestamp"))
		if ts == nil {
			ts = ParseTime(p.value("created_at"))
		}
		out = append(out, TranscriptMessage{
			MessageID:   p.str("message_id"),
			Text:        orElse(p.str("message"), p.str("text")),
			MessageType: orElse(p.str("message_type"), "text"),
			Sender:      p.str("sender"),
			Receiver:    p.str("receiver"),
			Direction:   p.str("direction"),
			Timestamp:   ts,
			IsRead:      toBool(p.value("is_read")),
			ReadAt:      ParseTime(p.value("read_at")),
		})
	}
	return out
}
