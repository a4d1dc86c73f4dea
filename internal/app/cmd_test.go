package app

import "testing"

// TestParseCommand はサブコマンドの解析を検証する。
func TestParseCommand(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want Command
	}{
		{"no args defaults to serve", nil, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"worker", []string{"worker"}, CommandWorker},
		{"migrate", []string{"migrate"}, CommandMigrate},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"unknown falls back to serve", []string{"bogus"}, CommandServe},
		{"extra args ignored", []string{"worker", "--verbose"}, CommandWorker},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseCommand(tc.args); got != tc.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tc.args, got, tc.want)
			}
		})
	}
}
