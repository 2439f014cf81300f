package symptoms

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	domain "github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// bodyField names errors that concern the document as a whole
const bodyField = "(body)"

// Gateway enforces the request and response contracts. Both schemas are
// compiled once; a Gateway is safe for concurrent use.
type Gateway struct {
	request  *gojsonschema.Schema
	response *gojsonschema.Schema
}

func NewGateway() (*Gateway, error) {
	req, err := loadSchema("schemas/request.json")
	if err != nil {
		return nil, err
	}
	resp, err := loadSchema("schemas/response.json")
	if err != nil {
		return nil, err
	}
	return &Gateway{request: req, response: resp}, nil
}

// MustGateway panics if the embedded schemas do not compile
func MustGateway() *Gateway {
	g, err := NewGateway()
	if err != nil {
		panic(err)
	}
	return g
}

func loadSchema(name string) (*gojsonschema.Schema, error) {
	b, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return s, nil
}

// ValidateRequest checks an untyped inbound payload and decodes it.
// On failure the error is a *domain.ValidationError listing every violation.
func (g *Gateway) ValidateRequest(raw []byte) (*domain.Request, error) {
	var req domain.Request
	if err := g.check(g.request, domain.DirectionRequest, raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ValidateResponse checks the untyped result of the remote function.
// The accepted bytes are kept on the result so they can be relayed unchanged.
func (g *Gateway) ValidateResponse(raw []byte) (*domain.Response, error) {
	var resp domain.Response
	if err := g.check(g.response, domain.DirectionResponse, raw, &resp); err != nil {
		return nil, err
	}
	resp.Raw = append(json.RawMessage(nil), bytes.TrimSpace(raw)...)
	return &resp, nil
}

func (g *Gateway) check(schema *gojsonschema.Schema, dir domain.Direction, raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return invalid(dir, domain.FieldError{Field: bodyField, Type: "required", Message: "body is required"})
	}
	if !json.Valid(raw) {
		return invalid(dir, domain.FieldError{Field: bodyField, Type: "invalid_json", Message: "body is not valid JSON"})
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return invalid(dir, domain.FieldError{Field: bodyField, Type: "invalid_json", Message: err.Error()})
	}
	if !result.Valid() {
		fields := make([]domain.FieldError, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			fields = append(fields, domain.FieldError{
				Field:   fieldPath(re),
				Type:    re.Type(),
				Message: re.Description(),
			})
		}
		return invalid(dir, fields...)
	}

	// schema passed; decoding can still reject values such as 5.0 for an integer field
	if err := json.Unmarshal(raw, out); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return invalid(dir, domain.FieldError{Field: ute.Field, Type: "invalid_type", Message: fmt.Sprintf("cannot use %s as %s", ute.Value, ute.Type)})
		}
		return invalid(dir, domain.FieldError{Field: bodyField, Type: "invalid_type", Message: err.Error()})
	}
	return nil
}

// invalid sorts violations so the same input always yields the same error
func invalid(dir domain.Direction, fields ...domain.FieldError) *domain.ValidationError {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Field != fields[j].Field {
			return fields[i].Field < fields[j].Field
		}
		if fields[i].Type != fields[j].Type {
			return fields[i].Type < fields[j].Type
		}
		return fields[i].Message < fields[j].Message
	})
	return &domain.ValidationError{Direction: dir, Fields: fields}
}

// fieldPath turns "(root).patientContext.age" into "patientContext.age".
// Required errors are reported on the missing property itself.
func fieldPath(re gojsonschema.ResultError) string {
	path := strings.TrimPrefix(re.Context().String(), gojsonschema.STRING_CONTEXT_ROOT)
	path = strings.TrimPrefix(path, ".")

	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok && prop != "" {
			if path == "" {
				path = prop
			} else if path != prop && !strings.HasSuffix(path, "."+prop) {
				path = path + "." + prop
			}
		}
	}
	if path == "" {
		return bodyField
	}
	return path
}
