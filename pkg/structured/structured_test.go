package structured

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Kind
	}{
		{"nil", nil, KindNull},
		{"nan", math.NaN(), KindNull},
		{"empty string", "", KindNull},
		{"json object", `{"name": "Action"}`, KindRecord},
		{"python list", `[{'id': 28, 'name': 'Action'}]`, KindRecordList},
		{"map", map[string]any{"name": "x"}, KindRecord},
		{"slice", []any{map[string]any{"name": "x"}, 3.0}, KindRecordList},
		{"garbage", "not a literal", KindUnparseable},
		{"number", 12.0, KindUnparseable},
		{"scalar literal", "42", KindUnparseable},
		{"bool", true, KindUnparseable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw).Kind)
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		key  string
		want []string
	}{
		{
			name: "python literal list",
			raw:  `[{'id': 28, 'name': 'Action'}, {'id': 12, 'name': 'Adventure'}]`,
			key:  "name",
			want: []string{"Action", "Adventure"},
		},
		{
			name: "escaped quote inside single quoted string",
			raw:  `[{'name': 'Director\'s Cut'}]`,
			key:  "name",
			want: []string{"Director's Cut"},
		},
		{
			name: "double quotes inside single quoted string",
			raw:  `[{'name': 'The "Best" One', 'extra': None, 'flag': True}]`,
			key:  "name",
			want: []string{`The "Best" One`},
		},
		{
			name: "single record",
			raw:  `{"name": "Drama"}`,
			key:  "name",
			want: []string{"Drama"},
		},
		{
			name: "record without key is omitted",
			raw:  `{"id": 1}`,
			key:  "name",
			want: []string{},
		},
		{
			name: "non record entries skipped",
			raw:  []any{"x", map[string]any{"name": "Comedy"}, 1.0},
			key:  "name",
			want: []string{"Comedy"},
		},
		{
			name: "numeric value stringified",
			raw:  `[{"name": 7}]`,
			key:  "name",
			want: []string{"7"},
		},
		{"nil", nil, "name", []string{}},
		{"unparseable", "[{'name': ", "name", []string{}},
		{"unknown identifier", "[{'name': foo}]", "name", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.raw, tt.key))
		})
	}
}
