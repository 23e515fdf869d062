package stubserver

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iksnae/darkscan/internal"
	"github.com/iksnae/darkscan/testutil"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newStub(t *testing.T, opts ...Option) (*Server, *internal.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	stub := New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := internal.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return stub, client
}

func pngPayload() internal.EncodedImage {
	return internal.EncodedImage{Payload: base64.StdEncoding.EncodeToString(testutil.PNGBytes)}
}

func TestScoreIsDeterministic(t *testing.T) {
	a := Score(testutil.PNGBytes, internal.LanguageEnglish, fixedNow)
	b := Score(testutil.PNGBytes, internal.LanguageEnglish, fixedNow)
	if a.ID != b.ID || a.DPIScore != b.DPIScore || a.SignalBreakdown != b.SignalBreakdown {
		t.Errorf("Score() not deterministic: %+v vs %+v", a, b)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("Score() produced invalid analysis: %v", err)
	}
	if a.Timestamp != "2024-03-01T09:30:00.000000" {
		t.Errorf("Timestamp = %q", a.Timestamp)
	}

	other := Score(testutil.JPEGBytes, internal.LanguageEnglish, fixedNow)
	if other.ID == a.ID {
		t.Error("different images share an id")
	}
	hindi := Score(testutil.PNGBytes, internal.LanguageHindi, fixedNow)
	if hindi.ID == a.ID {
		t.Error("different languages share an id")
	}
	if hindi.RiskLevel != internal.Classify(hindi.DPIScore).Tier.Label(internal.LanguageHindi) {
		t.Errorf("RiskLevel = %q, not localised", hindi.RiskLevel)
	}
}

func TestAnalyzeThroughClient(t *testing.T) {
	stub, client := newStub(t)
	ctx := context.Background()

	a, err := client.Analyze(ctx, pngPayload(), internal.LanguageHinglish)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	want := Score(testutil.PNGBytes, internal.LanguageHinglish, fixedNow)
	if a.ID != want.ID || a.DPIScore != want.DPIScore {
		t.Errorf("Analyze() = %+v, want %+v", a, want)
	}
	if a.Language != internal.LanguageHinglish {
		t.Errorf("Language = %q", a.Language)
	}

	history, err := client.FetchHistory(ctx)
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].ID != a.ID {
		t.Errorf("FetchHistory() = %+v", history)
	}
	if len(stub.Analyses()) != 1 {
		t.Errorf("Analyses() len = %d", len(stub.Analyses()))
	}

	got, err := client.FetchAnalysis(ctx, a.ID)
	if err != nil {
		t.Fatalf("FetchAnalysis() error = %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("FetchAnalysis() id = %q", got.ID)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	seed := internal.CreateTestHistory(2)
	_, client := newStub(t, WithHistory(seed))

	a, err := client.Analyze(context.Background(), pngPayload(), internal.LanguageEnglish)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	history, err := client.FetchHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchHistory() error = %v", err)
	}
	ids := []string{history[0].ID, history[1].ID, history[2].ID}
	if ids[0] != a.ID || ids[1] != "h1" || ids[2] != "h2" {
		t.Errorf("history order = %v", ids)
	}
}

func TestAnalysisNotFound(t *testing.T) {
	_, client := newStub(t)
	_, err := client.FetchAnalysis(context.Background(), "missing")
	if internal.ServiceStatus(err) != http.StatusNotFound {
		t.Errorf("FetchAnalysis() error = %v, want 404", err)
	}
}

func TestHealth(t *testing.T) {
	_, client := newStub(t)
	status, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if !status.Healthy() {
		t.Errorf("Health() = %+v", status)
	}
}

func TestFailureModes(t *testing.T) {
	tests := []struct {
		mode       Mode
		wantKind   internal.RequestErrorKind
		historyErr bool
	}{
		{ModeHTMLGateway, internal.KindMalformedResponse, true},
		{ModeReject, internal.KindServiceRejected, true},
		{ModeMalformedHistory, -1, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			stub, client := newStub(t, WithMode(tt.mode))
			if stub.Mode() != tt.mode {
				t.Fatalf("Mode() = %q", stub.Mode())
			}

			_, err := client.Analyze(context.Background(), pngPayload(), internal.LanguageEnglish)
			if tt.wantKind < 0 {
				if err != nil {
					t.Errorf("Analyze() error = %v, want success", err)
				}
			} else {
				var reqErr *internal.RequestError
				if !errors.As(err, &reqErr) || reqErr.Kind != tt.wantKind {
					t.Errorf("Analyze() error = %v, want kind %v", err, tt.wantKind)
				}
			}

			_, err = client.FetchHistory(context.Background())
			if (err != nil) != tt.historyErr {
				t.Errorf("FetchHistory() error = %v", err)
			}
		})
	}
}

func TestMalformedHistoryIsMalformed(t *testing.T) {
	_, client := newStub(t, WithMode(ModeMalformedHistory))
	_, err := client.FetchHistory(context.Background())
	if !errors.Is(err, internal.ErrMalformedResponse) {
		t.Errorf("FetchHistory() error = %v, want ErrMalformedResponse", err)
	}
}

func TestAnalyzeBadRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := New()
	tests := []struct {
		name string
		body string
	}{
		{"not json", "screenshot"},
		{"missing screenshot", string(testutil.JSONMarshal(t, map[string]string{"language": "en"}))},
		{"bad base64", string(testutil.JSONMarshal(t, map[string]string{"screenshot": "!!!", "language": "en"}))},
		{"bad language", string(testutil.JSONMarshal(t, map[string]string{"screenshot": "iVBORw0KGgo=", "language": "fr"}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			stub.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
	if len(stub.Analyses()) != 0 {
		t.Error("rejected requests were stored")
	}
}

func TestAnalyzeAcceptsDataURI(t *testing.T) {
	_, client := newStub(t)
	payload := internal.EncodedImage{Payload: testutil.DataURI("image/png", testutil.PNGBytes)}
	a, err := client.Analyze(context.Background(), payload, internal.LanguageEnglish)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.ID != Score(testutil.PNGBytes, internal.LanguageEnglish, fixedNow).ID {
		t.Error("data URI payload scored differently from raw payload")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(strings.ToUpper(string(m)))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}
	if _, err := ParseMode("chaos"); err == nil {
		t.Error("ParseMode(chaos) expected error")
	}
}
