package symptoms

import (
	"encoding/json"
	"fmt"
	"math"
)

// Sex enum
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// Confidence enum, declared from most to least certain
type Confidence string

const (
	ConfidenceHigh     Confidence = "High"
	ConfidenceMedium   Confidence = "Medium"
	ConfidenceLow      Confidence = "Low"
	ConfidencePossible Confidence = "Possible"
)

// Rank orders confidence levels: High=0 ... Possible=3, unknown=-1
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceLow:
		return 2
	case ConfidencePossible:
		return 3
	default:
		return -1
	}
}

// PatientContext holds optional facts about the patient
type PatientContext struct {
	Age     *int    `json:"age,omitempty"`
	Sex     *Sex    `json:"sex,omitempty"`
	History *string `json:"history,omitempty"`
}

// UnmarshalJSON accepts whole-number ages written as floats (30.0, 1e2)
func (p *PatientContext) UnmarshalJSON(b []byte) error {
	type plain PatientContext
	var aux struct {
		plain
		Age *json.Number `json:"age"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = PatientContext(aux.plain)
	p.Age = nil
	if aux.Age == nil {
		return nil
	}
	f, err := aux.Age.Float64()
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("age %s is not a whole number", aux.Age.String())
	}
	age := int(f)
	p.Age = &age
	return nil
}

// Request is the inbound symptom analysis request
type Request struct {
	Symptoms       string          `json:"symptoms"`
	PatientContext *PatientContext `json:"patientContext,omitempty"`
}

type Diagnosis struct {
	Name       string      `json:"name"`
	Confidence *Confidence `json:"confidence,omitempty"`
	Rationale  *string     `json:"rationale,omitempty"`
}

type Investigation struct {
	Name      string  `json:"name"`
	Rationale *string `json:"rationale,omitempty"`
}

// NextStep routes the user to another tool with a prefilled topic
type NextStep struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	ToolID         string `json:"toolId"`
	PrefilledTopic string `json:"prefilledTopic"`
	CTA            string `json:"cta"`
}

// Response is what the remote function must return. Diagnoses is always
// encoded, even when empty. When Raw is set it is encoded verbatim, so a
// validated remote result is relayed exactly as received.
type Response struct {
	Raw json.RawMessage `json:"-"`

	Diagnoses               []Diagnosis     `json:"diagnoses"`
	SuggestedInvestigations []Investigation `json:"suggestedInvestigations,omitempty"`
	SuggestedManagement     []string        `json:"suggestedManagement,omitempty"`
	NextSteps               []NextStep      `json:"nextSteps,omitempty"`
	Disclaimer              *string         `json:"disclaimer,omitempty"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain Response
	return json.Marshal(plain(r))
}

// Payload is the argument object sent to the remote function.
// PatientContext is never nil: an absent context is sent as {}.
type Payload struct {
	Symptoms       string          `json:"symptoms"`
	PatientContext *PatientContext `json:"patientContext"`
}

// NewPayload flattens a validated request into the remote argument shape
func NewPayload(req *Request) Payload {
	pc := &PatientContext{}
	if req.PatientContext != nil {
		c := *req.PatientContext
		pc = &c
	}
	return Payload{Symptoms: req.Symptoms, PatientContext: pc}
}
