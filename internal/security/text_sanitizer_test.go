package security

import "testing"

// TestTextSanitizer_RemovesTags はHTMLタグの除去を検証する。
func TestTextSanitizer_RemovesTags(t *testing.T) {
	s := NewTextSanitizer()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"script tag", "<script>alert(1)</script>牛乳を買う", "牛乳を買う"},
		{"bold tag", "<b>重要</b>なタスク", "重要なタスク"},
		{"plain text", "家賃を払う", "家賃を払う"},
		{"empty", "", ""},
		{"whitespace trimmed", "  タスク  ", "タスク"},
		{"img onerror", `<img src=x onerror=alert(1)>写真`, "写真"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Sanitize(tc.input); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestTextSanitizer_Idempotent は同一入力に対して常に同一出力を
// 返すことを検証する。
func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := "<i>買い物</i> & 掃除"
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("sanitize is not idempotent: first=%q second=%q", first, second)
	}
}
