package status

import (
	"encoding/json"
	"reflect"
	"testing"
)

// rawOptions разбирает JSON-массив опций в срез RawMessage.
func rawOptions(t *testing.T, s string) []json.RawMessage {
	t.Helper()
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		t.Fatalf("Unmarshal(%s): %v", s, err)
	}
	return raw
}

func TestNormalizeOptions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Code
	}{
		{"строки", `["WORKING","AWAY"]`, []Code{Working, Away}},
		{"объекты", `[{"value":"WORKING","label":"W"}]`, []Code{Working}},
		{"смешанная форма", `["OFF_WORK",{"value":"AWAY","label":"Away"}]`, []Code{OffWork, Away}},
		{"порядок бэкенда", `["OFF_WORK","WORKING","AWAY"]`, []Code{OffWork, Working, Away}},
		{"повторы и пустые", `["AWAY","","AWAY",{"value":""}]`, []Code{Away}},
		{"неизвестный код", `["ON_LEAVE"]`, []Code{"ON_LEAVE"}},
		{"пустой список", `[]`, []Code{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOptions(rawOptions(t, tt.input))
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeOptions(%s) = %v, ожидается %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeOptions_Malformed(t *testing.T) {
	inputs := []string{
		`[42]`,
		`[null]`,
		`[{"label":"без value"}]`,
		`[["WORKING"]]`,
	}
	for _, in := range inputs {
		if _, err := NormalizeOptions(rawOptions(t, in)); err == nil {
			t.Errorf("NormalizeOptions(%s): ожидалась ошибка", in)
		}
	}
}

func TestLabeler_Defaults(t *testing.T) {
	l := NewLabeler(nil)

	tests := map[string]string{
		"WORKING":         "근무중",
		"AWAY":            "자리비움",
		"OUT_ON_BUSINESS": "외근",
		"OFF_WORK":        "퇴근",
		"ON_LEAVE":        "ON_LEAVE",
		"":                Placeholder,
	}
	for code, want := range tests {
		if got := l.Label(code); got != want {
			t.Errorf("Label(%q) = %q, ожидается %q", code, got, want)
		}
	}
}

func TestLabeler_Lookup(t *testing.T) {
	catalog := map[string]string{"status.WORKING": "Working"}
	l := NewLabeler(func(key string) (string, bool) {
		v, ok := catalog[key]
		return v, ok
	})

	if got := l.Label("WORKING"); got != "Working" {
		t.Errorf("Label(WORKING) = %q, ожидается Working", got)
	}
	// Кода нет в каталоге — возвращается сам код
	if got := l.Label("AWAY"); got != "AWAY" {
		t.Errorf("Label(AWAY) = %q, ожидается AWAY", got)
	}
	if got := l.Label(""); got != Placeholder {
		t.Errorf("Label(\"\") = %q, ожидается %q", got, Placeholder)
	}
}
