package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

type summaryOut struct {
	Summary string `json:"summary" jsonschema:"description=Two or three sentences"`
}

func TestUnmarshalFlexibleSummaryVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid json object",
			input: `{"summary":"They practice padel."}`,
			want:  "They practice padel.",
		},
		{
			name:  "unquoted key and single quotes",
			input: `{summary: 'They work at Google.'}`,
			want:  "They work at Google.",
		},
		{
			name:  "trailing comma",
			input: `{"summary":"They live in Madrid.",}`,
			want:  "They live in Madrid.",
		},
		{
			name:  "missing end bracket",
			input: `{"summary":"They like jazz.`,
			want:  "They like jazz.",
		},
		{
			name:  "stringified object",
			input: `"{\"summary\": \"They read stoicism.\"}"`,
			want:  "They read stoicism.",
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"summary\": \"They cook.\"\n}\n",
			want:  "They cook.",
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"summary\": \"They run marathons.\"}\n```",
			want:  "They run marathons.",
		},
		{
			name:  "bare fence with repair",
			input: "```\n{summary: 'They paint.'}\n```",
			want:  "They paint.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got summaryOut
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Summary != tc.want {
				t.Fatalf("UnmarshalFlexible() got = %q, want %q", got.Summary, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexibleArray(t *testing.T) {
	type fact struct {
		Label string `json:"label"`
	}
	var got []fact
	if err := UnmarshalFlexible(`[{label:'Padel'},{label:'Chess',}]`, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got) != 2 || got[0].Label != "Padel" || got[1].Label != "Chess" {
		t.Fatalf("UnmarshalFlexible() got = %+v", got)
	}
}

func TestUnmarshalFlexibleUnrecoverable(t *testing.T) {
	var got summaryOut
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatal("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestGenerateSchemaIsStrict(t *testing.T) {
	b, err := json.Marshal(GenerateSchema(&summaryOut{}))
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	schema := string(b)
	for _, want := range []string{`"summary"`, `"additionalProperties":false`, `"required":["summary"]`} {
		if !strings.Contains(schema, want) {
			t.Fatalf("schema %s does not contain %s", schema, want)
		}
	}
	if strings.Contains(schema, `"$ref"`) {
		t.Fatalf("schema must be inlined: %s", schema)
	}
}
