package translate

import (
	"reflect"
	"testing"
)

func TestParseMapping(t *testing.T) {
	want := map[string]string{"Hello": "مرحبا", "Save": "حفظ"}

	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "pure JSON object",
			raw:  `{"Hello":"مرحبا","Save":"حفظ"}`,
			want: want,
		},
		{
			name: "object wrapped in prose",
			raw:  `Here is the translation you asked for: {"Hello":"مرحبا","Save":"حفظ"}. Let me know if you need anything else.`,
			want: want,
		},
		{
			name: "object wrapped in code fences",
			raw:  "```json\n{\"Hello\":\"مرحبا\",\"Save\":\"حفظ\"}\n```",
			want: want,
		},
		{
			name: "leading and trailing whitespace",
			raw:  "\n  {\"Hello\":\"مرحبا\",\"Save\":\"حفظ\"}  \n",
			want: want,
		},
		{
			name: "empty object",
			raw:  `{}`,
			want: map[string]string{},
		},
		{
			name:    "no braces at all",
			raw:     "I could not translate that.",
			wantErr: true,
		},
		{
			name:    "JSON array",
			raw:     `["Hello","Save"]`,
			wantErr: true,
		},
		{
			name:    "null literal",
			raw:     `null`,
			wantErr: true,
		},
		{
			name:    "broken object",
			raw:     `{"Hello": "مرحبا",`,
			wantErr: true,
		},
		{
			name:    "empty string",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMapping(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// A wrapped object and the bare object must yield the same mapping.
func TestParseMapping_WrappedEqualsPure(t *testing.T) {
	pure, err := ParseMapping(`{"a":"x","b":"y"}`)
	if err != nil {
		t.Fatalf("pure parse failed: %v", err)
	}
	wrapped, err := ParseMapping(`The result is {"a":"x","b":"y"} as requested.`)
	if err != nil {
		t.Fatalf("wrapped parse failed: %v", err)
	}
	if !reflect.DeepEqual(pure, wrapped) {
		t.Errorf("pure %v != wrapped %v", pure, wrapped)
	}
}
