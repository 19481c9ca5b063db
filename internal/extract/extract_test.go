package extract

import (
	"encoding/json"
	"fmt"
	"testing"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
