package core

import (
	"strings"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "loinc code",
			content: "8867-4",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("8867-4")
	id2 := IDFromContent("2160-0")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestTerm_ID(t *testing.T) {
	a := &Term{Code: "8867-4", LongCommonName: "Heart rate", Position: 0}
	b := &Term{Code: "8867-4", LongCommonName: "Heart rate", Position: 9000}

	if a.ID() != b.ID() {
		t.Errorf("Term.ID() should depend only on the code, got %d and %d", a.ID(), b.ID())
	}
}

func TestTerm_Text(t *testing.T) {
	term := &Term{
		Code:           "8867-4",
		LongCommonName: "Heart rate",
		Component:      "Heart rate",
		Property:       "NRat",
		TimeAspect:     "Pt",
		System:         "XXX",
		Scale:          "Qn",
		Method:         "",
		Class:          "HRTRATE.ATOM",
	}

	got := term.Text()
	want := "This LOINC term is for 'Heart rate'. Component: Heart rate. Property: NRat. Time Aspect: Pt. System: XXX. Scale: Qn. Method: . Class: HRTRATE.ATOM."
	if got != want {
		t.Errorf("Term.Text() = %q, want %q", got, want)
	}
}

func TestTerm_Payload(t *testing.T) {
	term := &Term{
		Code:           "2160-0",
		LongCommonName: "Creatinine [Mass/volume] in Serum or Plasma",
		Component:      "Creatinine",
		Property:       "MCnc",
		TimeAspect:     "Pt",
		System:         "Ser/Plas",
		Scale:          "Qn",
		Method:         "",
	}

	payload := term.Payload()

	wantKeys := []string{
		"Fully-Specified Name",
		"LOINC code",
		"Component",
		"Property",
		"Time",
		"System",
		"Scale",
		"Method",
	}
	for _, key := range wantKeys {
		if _, ok := payload[key]; !ok {
			t.Errorf("Term.Payload() missing key %q", key)
		}
	}
	if len(payload) != len(wantKeys) {
		t.Errorf("Term.Payload() has %d keys, want %d", len(payload), len(wantKeys))
	}

	if payload["LOINC code"] != "2160-0" {
		t.Errorf("Payload LOINC code = %q, want %q", payload["LOINC code"], "2160-0")
	}
	if !strings.HasPrefix(payload["Fully-Specified Name"], "Creatinine") {
		t.Errorf("Payload name = %q", payload["Fully-Specified Name"])
	}
}
