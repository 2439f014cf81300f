package symptoms

import (
	"context"
	"encoding/json"
)

// AnalyzerFunction is the callable flow that performs symptom analysis
const AnalyzerFunction = "symptomAnalyzerFlow"

// Invoker port (interface untuk remote callable function).
// Implementations return the raw, unvalidated result of the named function.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload any) (json.RawMessage, error)
}
