package entry

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want List
	}{
		{"null", `null`, nil},
		{"single string", `"status:500"`, List{Text{Query: "status:500"}}},
		{"blank string", `"  "`, List{}},
		{"single object", `{"type":"term","field":"host","value":"a"}`, List{Term{Field: "host", Value: "a"}}},
		{
			"mixed array",
			`["a", null, "", {"type":"terms","field":"dc","terms":["x","y"]}, {"type":"geo"}]`,
			List{Text{Query: "a"}, Terms{Field: "dc", Values: []string{"x", "y"}}, Unknown{Kind: "geo"}},
		},
		{"terms from values", `[{"type":"terms","field":"dc","values":["z"]}]`, List{Terms{Field: "dc", Values: []string{"z"}}}},
		{"untyped object with query", `{"query":"level:warn"}`, List{Text{Query: "level:warn"}}},
		{"untyped empty object", `{}`, List{Unknown{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got List
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestList_UnmarshalJSON_Invalid(t *testing.T) {
	for _, in := range []string{`42`, `[true]`, `[{"type":1}]`} {
		var got List
		if err := json.Unmarshal([]byte(in), &got); err == nil {
			t.Errorf("%s: expected error", in)
		}
	}
}

func TestList_InStruct(t *testing.T) {
	var req struct {
		AdHoc   List `json:"adHoc"`
		Stacked List `json:"stacked"`
	}
	if err := json.Unmarshal([]byte(`{"adHoc":"a"}`), &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.AdHoc) != 1 || req.Stacked != nil {
		t.Errorf("adHoc=%v stacked=%v", req.AdHoc, req.Stacked)
	}
}

func TestTexts_SkipsBlank(t *testing.T) {
	got := Texts("a", "", " ", "b")
	want := []Entry{Text{Query: "a"}, Text{Query: "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
