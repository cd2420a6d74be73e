package intake

import (
	"testing"
	"time"
)

func TestNormalizeResolvesAliasCasing(t *testing.T) {
	lead := Normalize(map[string]any{
		"FULL_NAME":    "Riya Sharma",
		"Email":        "Riya@Example.com",
		"Phone_Number": "9876543210",
		"UtmCampaign":  "spring-mba",
		"MODE":         "Online",
		"City":         "Delhi",
	})

	if lead.Name != "Riya Sharma" {
		t.Fatalf("expected name from FULL_NAME, got %q", lead.Name)
	}
	if lead.Email != "riya@example.com" {
		t.Fatalf("expected lowercased email, got %q", lead.Email)
	}
	if lead.Phone != "9876543210" {
		t.Fatalf("expected phone from Phone_Number, got %q", lead.Phone)
	}
	if lead.UTMCampaign != "spring-mba" || lead.Mode != "Online" {
		t.Fatalf("unexpected campaign/mode: %q %q", lead.UTMCampaign, lead.Mode)
	}
	if len(lead.City) != 1 || lead.City[0] != "Delhi" {
		t.Fatalf("expected city list [Delhi], got %v", lead.City)
	}
}

func TestNormalizeReadsUTMFromSourceURL(t *testing.T) {
	lead := Normalize(map[string]any{
		"email":          "a@b.c",
		"mobile":         "9876543210",
		"landingPageUrl": "https://example.com/mba?utm_campaign_name=Summer&utm_source=google&medium=cpc&level=PG",
	})

	if lead.SourceURL == "" {
		t.Fatal("expected landing page url to be the source url")
	}
	if lead.UTMCampaign != "Summer" {
		t.Fatalf("expected campaign from utm_campaign_name, got %q", lead.UTMCampaign)
	}
	if lead.UTMSource != "google" || lead.UTMMedium != "cpc" {
		t.Fatalf("expected google/cpc, got %q/%q", lead.UTMSource, lead.UTMMedium)
	}
	if len(lead.Level) != 1 || lead.Level[0] != "PG" {
		t.Fatalf("expected level from query, got %v", lead.Level)
	}
}

func TestNormalizeCampaignFallsBackToCampaignID(t *testing.T) {
	lead := Normalize(map[string]any{
		"first_source_url": "https://example.com/?gad_campaignid=12345",
	})
	if lead.UTMCampaignID != "12345" {
		t.Fatalf("expected campaign id 12345, got %q", lead.UTMCampaignID)
	}
	if lead.UTMCampaign != "12345" {
		t.Fatalf("expected campaign to fall back to its id, got %q", lead.UTMCampaign)
	}
}

func TestNormalizeExplicitFieldBeatsQuery(t *testing.T) {
	lead := Normalize(map[string]any{
		"source":       "Facebook",
		"sourceUrl":    "https://example.com/?source=google&utm_campaign=q",
		"utm_campaign": "explicit",
	})
	if lead.Source != "Facebook" || lead.UTMCampaign != "explicit" {
		t.Fatalf("expected explicit values to win, got %q %q", lead.Source, lead.UTMCampaign)
	}
}

func TestNormalizeSkipsEmptyAliases(t *testing.T) {
	lead := Normalize(map[string]any{
		"degree":          "B.Com",
		"preferredDegree": []any{},
		"state":           "",
		"currentState":    "Maharashtra",
		"student_age":     23.0,
	})
	if len(lead.Degree) != 1 || lead.Degree[0] != "B.Com" {
		t.Fatalf("expected degree B.Com, got %v", lead.Degree)
	}
	if len(lead.State) != 1 || lead.State[0] != "Maharashtra" {
		t.Fatalf("expected state from currentState, got %v", lead.State)
	}
	if lead.Age != 23 {
		t.Fatalf("expected age 23, got %d", lead.Age)
	}
}

func TestAssignmentFieldsUseScorerNames(t *testing.T) {
	lead := Normalize(map[string]any{
		"name":             "Riya",
		"email":            "riya@example.com",
		"phoneNumber":      "9876543210",
		"preferred_budget": "₹75,000",
		"city":             "Pune",
	})
	fields := lead.AssignmentFields()
	if fields["preferred_budget"] != "₹75,000" {
		t.Fatalf("expected raw budget, got %v", fields["preferred_budget"])
	}
	city, ok := fields["preferred_city"].([]string)
	if !ok || len(city) != 1 || city[0] != "Pune" {
		t.Fatalf("expected preferred_city [Pune], got %v", fields["preferred_city"])
	}
	if fields["phone"] != "9876543210" {
		t.Fatalf("expected phone, got %v", fields["phone"])
	}
}

func TestParseTranscript(t *testing.T) {
	msgs := ParseTranscript([]any{
		map[string]any{"message_id": "m1", "text": "hello", "sender": "919876543210", "timestamp": "2024-05-01T10:00:00Z"},
		"not an object",
		map[string]any{"message": "hi", "direction": "sent", "created_at": 1714557600000.0},
	})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hello" || msgs[0].MessageType != "text" {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if msgs[0].Timestamp == nil || !msgs[0].Timestamp.Equal(want) {
		t.Fatalf("expected %v, got %v", want, msgs[0].Timestamp)
	}
	if msgs[1].Timestamp == nil || !msgs[1].Timestamp.Equal(want) {
		t.Fatalf("expected millis timestamp %v, got %v", want, msgs[1].Timestamp)
	}
	if msgs[1].Direction != "sent" {
		t.Fatalf("expected direction sent, got %q", msgs[1].Direction)
	}
}
