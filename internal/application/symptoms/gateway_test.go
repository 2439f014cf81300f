package symptoms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
)

func fieldNames(ve *domain.ValidationError) []string {
	out := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		out = append(out, f.Field)
	}
	return out
}

func requireValidationError(t *testing.T, err error, dir domain.Direction) *domain.ValidationError {
	t.Helper()
	require.Error(t, err)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, dir, ve.Direction)
	require.NotEmpty(t, ve.Fields)
	return ve
}

func TestGateway_ValidateRequestAccepts(t *testing.T) {
	g := MustGateway()

	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, req *domain.Request)
	}{
		{
			name: "symptoms only",
			body: `{"symptoms":"persistent headache and nausea for three days"}`,
			check: func(t *testing.T, req *domain.Request) {
				assert.Equal(t, "persistent headache and nausea for three days", req.Symptoms)
				assert.Nil(t, req.PatientContext)
			},
		},
		{
			name: "exactly ten characters",
			body: `{"symptoms":"0123456789"}`,
		},
		{
			name: "full patient context",
			body: `{"symptoms":"chest pain radiating to left arm","patientContext":{"age":54,"sex":"male","history":"hypertension"}}`,
			check: func(t *testing.T, req *domain.Request) {
				require.NotNil(t, req.PatientContext)
				require.NotNil(t, req.PatientContext.Age)
				assert.Equal(t, 54, *req.PatientContext.Age)
				require.NotNil(t, req.PatientContext.Sex)
				assert.Equal(t, domain.SexMale, *req.PatientContext.Sex)
				require.NotNil(t, req.PatientContext.History)
				assert.Equal(t, "hypertension", *req.PatientContext.History)
			},
		},
		{
			name: "explicit nulls treated as absent",
			body: `{"symptoms":"fever and dry cough","patientContext":{"age":null,"sex":null,"history":null}}`,
			check: func(t *testing.T, req *domain.Request) {
				require.NotNil(t, req.PatientContext)
				assert.Nil(t, req.PatientContext.Age)
				assert.Nil(t, req.PatientContext.Sex)
				assert.Nil(t, req.PatientContext.History)
			},
		},
		{
			name: "null patient context",
			body: `{"symptoms":"fever and dry cough","patientContext":null}`,
			check: func(t *testing.T, req *domain.Request) {
				assert.Nil(t, req.PatientContext)
			},
		},
		{
			name: "unknown fields ignored",
			body: `{"symptoms":"fever and dry cough","locale":"en"}`,
		},
		{
			name: "multibyte symptoms counted in characters",
			body: `{"symptoms":"головная боль"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := g.ValidateRequest([]byte(tt.body))
			require.NoError(t, err)
			require.NotNil(t, req)
			if tt.check != nil {
				tt.check(t, req)
			}
		})
	}
}

func TestGateway_ValidateRequestRejects(t *testing.T) {
	g := MustGateway()

	tests := []struct {
		name      string
		body      string
		wantField string
		wantType  string
	}{
		{name: "short symptoms", body: `{"symptoms":"pain"}`, wantField: "symptoms", wantType: "string_gte"},
		{name: "nine multibyte characters", body: `{"symptoms":"ééééééééé"}`, wantField: "symptoms", wantType: "string_gte"},
		{name: "missing symptoms", body: `{"patientContext":{"age":30}}`, wantField: "symptoms", wantType: "required"},
		{name: "symptoms wrong type", body: `{"symptoms":1234567890123}`, wantField: "symptoms", wantType: "invalid_type"},
		{name: "zero age", body: `{"symptoms":"persistent cough at night","patientContext":{"age":0}}`, wantField: "patientContext.age", wantType: "number_gte"},
		{name: "negative age", body: `{"symptoms":"persistent cough at night","patientContext":{"age":-4}}`, wantField: "patientContext.age", wantType: "number_gte"},
		{name: "fractional age", body: `{"symptoms":"persistent cough at night","patientContext":{"age":4.5}}`, wantField: "patientContext.age", wantType: "invalid_type"},
		{name: "age as string", body: `{"symptoms":"persistent cough at night","patientContext":{"age":"forty"}}`, wantField: "patientContext.age", wantType: "invalid_type"},
		{name: "sex outside enum", body: `{"symptoms":"persistent cough at night","patientContext":{"sex":"unknown"}}`, wantField: "patientContext.sex", wantType: "enum"},
		{name: "context not an object", body: `{"symptoms":"persistent cough at night","patientContext":"adult"}`, wantField: "patientContext", wantType: "invalid_type"},
		{name: "array body", body: `[]`, wantField: "(body)", wantType: "invalid_type"},
		{name: "malformed json", body: `{"symptoms":`, wantField: "(body)", wantType: "invalid_json"},
		{name: "empty body", body: ``, wantField: "(body)", wantType: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := g.ValidateRequest([]byte(tt.body))
			assert.Nil(t, req)
			ve := requireValidationError(t, err, domain.DirectionRequest)
			assert.ErrorIs(t, err, domain.ErrRequestInvalid)
			assert.Contains(t, fieldNames(ve), tt.wantField)

			var types []string
			for _, f := range ve.Fields {
				if f.Field == tt.wantField {
					types = append(types, f.Type)
				}
			}
			assert.Contains(t, types, tt.wantType)
		})
	}
}

func TestGateway_ValidateRequestReportsEveryField(t *testing.T) {
	g := MustGateway()
	_, err := g.ValidateRequest([]byte(`{"symptoms":"short","patientContext":{"age":0,"sex":"x"}}`))
	ve := requireValidationError(t, err, domain.DirectionRequest)

	names := fieldNames(ve)
	assert.Contains(t, names, "symptoms")
	assert.Contains(t, names, "patientContext.age")
	assert.Contains(t, names, "patientContext.sex")
	assert.IsNonDecreasing(t, names)
}

func TestGateway_ValidationIsIdempotent(t *testing.T) {
	g := MustGateway()
	bodies := []string{
		`{"symptoms":"persistent headache and nausea for three days","patientContext":{"age":30,"sex":"female"}}`,
		`{"symptoms":"short","patientContext":{"age":-1,"sex":"robot","history":7}}`,
	}
	for _, body := range bodies {
		req1, err1 := g.ValidateRequest([]byte(body))
		req2, err2 := g.ValidateRequest([]byte(body))
		assert.Equal(t, req1, req2)
		assert.Equal(t, err1, err2)
	}
}

func TestGateway_ValidateResponseAccepts(t *testing.T) {
	g := MustGateway()

	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, resp *domain.Response)
	}{
		{
			name: "minimal",
			body: `{"diagnoses":[{"name":"Migraine","confidence":"Medium"}]}`,
			check: func(t *testing.T, resp *domain.Response) {
				require.Len(t, resp.Diagnoses, 1)
				assert.Equal(t, "Migraine", resp.Diagnoses[0].Name)
				require.NotNil(t, resp.Diagnoses[0].Confidence)
				assert.Equal(t, domain.ConfidenceMedium, *resp.Diagnoses[0].Confidence)
			},
		},
		{
			name: "empty diagnoses",
			body: `{"diagnoses":[]}`,
			check: func(t *testing.T, resp *domain.Response) {
				assert.NotNil(t, resp.Diagnoses)
				assert.Empty(t, resp.Diagnoses)
			},
		},
		{
			name: "everything populated",
			body: `{
				"diagnoses":[{"name":"Tension headache","confidence":"Possible","rationale":"bilateral pressure"}],
				"suggestedInvestigations":[{"name":"CT head","rationale":"rule out bleed"}],
				"suggestedManagement":["Hydration","Analgesia"],
				"nextSteps":[{"title":"Learn more","description":"Study headaches","toolId":"topics","prefilledTopic":"Headache","cta":"Open"}],
				"disclaimer":"Not medical advice."
			}`,
			check: func(t *testing.T, resp *domain.Response) {
				require.Len(t, resp.SuggestedInvestigations, 1)
				assert.Equal(t, []string{"Hydration", "Analgesia"}, resp.SuggestedManagement)
				require.Len(t, resp.NextSteps, 1)
				assert.Equal(t, "topics", resp.NextSteps[0].ToolID)
				require.NotNil(t, resp.Disclaimer)
			},
		},
		{
			name: "optional collections null",
			body: `{"diagnoses":[{"name":"Viral URTI","confidence":null}],"suggestedManagement":null,"disclaimer":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := g.ValidateResponse([]byte(tt.body))
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, resp)
			}
		})
	}
}

func TestGateway_ValidateRequestWholeNumberAge(t *testing.T) {
	g := MustGateway()

	for _, age := range []string{"30", "30.0", "1e2"} {
		t.Run(age, func(t *testing.T) {
			req, err := g.ValidateRequest([]byte(`{"symptoms":"persistent cough at night","patientContext":{"age":` + age + `}}`))
			require.NoError(t, err)
			require.NotNil(t, req.PatientContext)
			require.NotNil(t, req.PatientContext.Age)
		})
	}

	req, err := g.ValidateRequest([]byte(`{"symptoms":"persistent cough at night","patientContext":{"age":1e2}}`))
	require.NoError(t, err)
	assert.Equal(t, 100, *req.PatientContext.Age)
}

func TestGateway_ValidateResponseKeepsRawBytes(t *testing.T) {
	g := MustGateway()
	body := `{"diagnoses":[],"suggestedManagement":[],"nextSteps":[]}`

	resp, err := g.ValidateResponse([]byte("  " + body + "\n"))
	require.NoError(t, err)
	assert.Equal(t, body, string(resp.Raw))
	assert.Empty(t, resp.SuggestedManagement)
}

func TestGateway_ValidateResponseRejects(t *testing.T) {
	g := MustGateway()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "missing diagnoses", body: `{"disclaimer":"n/a"}`, wantField: "diagnoses"},
		{name: "null diagnoses", body: `{"diagnoses":null}`, wantField: "diagnoses"},
		{name: "diagnoses not array", body: `{"diagnoses":{"name":"Flu"}}`, wantField: "diagnoses"},
		{name: "diagnosis without name", body: `{"diagnoses":[{"confidence":"High"}]}`, wantField: "diagnoses.0.name"},
		{name: "bad confidence", body: `{"diagnoses":[{"name":"Flu"},{"name":"Cold","confidence":"Certain"}]}`, wantField: "diagnoses.1.confidence"},
		{name: "investigation without name", body: `{"diagnoses":[],"suggestedInvestigations":[{"rationale":"x"}]}`, wantField: "suggestedInvestigations.0.name"},
		{name: "management not strings", body: `{"diagnoses":[],"suggestedManagement":[1]}`, wantField: "suggestedManagement.0"},
		{name: "incomplete next step", body: `{"diagnoses":[],"nextSteps":[{"title":"t","description":"d","toolId":"x","cta":"go"}]}`, wantField: "nextSteps.0.prefilledTopic"},
		{name: "string result", body: `"Migraine"`, wantField: "(body)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := g.ValidateResponse([]byte(tt.body))
			assert.Nil(t, resp)
			ve := requireValidationError(t, err, domain.DirectionResponse)
			assert.NotErrorIs(t, err, domain.ErrRequestInvalid)
			assert.Contains(t, fieldNames(ve), tt.wantField)
		})
	}
}
