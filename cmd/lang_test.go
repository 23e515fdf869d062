package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/darkscan/internal"
	"github.com/iksnae/darkscan/testutil"
)

func TestLangCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.runOffline("lang")
	if err != nil {
		t.Fatalf("lang error = %v", err)
	}
	if !strings.Contains(out, "* en") {
		t.Errorf("default language output = %q", out)
	}

	if _, err := env.runOffline("lang", "hi"); err != nil {
		t.Fatalf("lang hi error = %v", err)
	}
	out, err = env.runOffline("lang")
	if err != nil {
		t.Fatalf("lang error = %v", err)
	}
	if !strings.Contains(out, "* hi") {
		t.Errorf("language not persisted: %q", out)
	}

	if _, err := env.runOffline("lang", "fr"); err == nil {
		t.Error("lang fr expected error")
	}

	// New requests use the saved language.
	out, err = env.run("analyze", testutil.CreatePNGFixture(t), "--format", "json")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	var a internal.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Language != internal.LanguageHindi {
		t.Errorf("analysis language = %q, want hi", a.Language)
	}
}

func TestLangDoesNotRelabelHistory(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.run("analyze", testutil.CreatePNGFixture(t)); err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	if _, err := env.runOffline("lang", "hinglish"); err != nil {
		t.Fatalf("lang error = %v", err)
	}
	out, err := env.runOffline("show", "--format", "json")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if got := decodeAnalysis(t, out); got.Language != internal.LanguageEnglish {
		t.Errorf("current analysis language = %q, want en", got.Language)
	}
}

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    []string
		wantErr bool
	}{
		{args: []string{"82"}, want: []string{"High", "#EF4444", "alert-circle"}},
		{args: []string{"145"}, want: []string{"Score: 100", "High"}},
		{args: []string{"59"}, want: []string{"Medium (Moderate)", "#F59E0B", "warning"}},
		{args: []string{"30", "--lang", "hi"}, want: []string{"मध्यम"}},
		{args: []string{"29", "--lang", "hinglish"}, want: []string{"Low (Kam)", "#10B981", "checkmark-circle"}},
		{args: []string{"-5"}, want: []string{"Score: 0", "Low"}},
		{args: []string{"high"}, wantErr: true},
		{args: []string{"50", "--lang", "fr"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := execute(append([]string{"classify"}, tt.args...)...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("classify error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("classify output missing %q:\n%s", s, out)
				}
			}
		})
	}
}
