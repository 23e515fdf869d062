package stubserver

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iksnae/darkscan/internal"
)

// Mode selects how the stub responds
type Mode string

const (
	// ModeNormal serves well-formed deterministic analyses
	ModeNormal Mode = "normal"
	// ModeHTMLGateway answers every route with an HTML gateway page and status 200
	ModeHTMLGateway Mode = "html-gateway"
	// ModeReject answers every route with 500
	ModeReject Mode = "reject"
	// ModeMalformedHistory serves a history whose items lack required fields
	ModeMalformedHistory Mode = "malformed-history"
)

// Modes lists every supported mode
var Modes = []Mode{ModeNormal, ModeHTMLGateway, ModeReject, ModeMalformedHistory}

// ParseMode parses a mode name
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == strings.ToLower(strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown stub mode %q", s)
}

const gatewayPage = "<html><body><h1>502 Bad Gateway</h1></body></html>"

// pythonISOFormat matches the offset-less timestamps the real service emits
const pythonISOFormat = "2006-01-02T15:04:05.000000"

var issueCatalog = [5]internal.DetectedIssue{
	{Issue: "Visual interference", Description: "The option you probably want is visually de-emphasised"},
	{Issue: "Confusing language", Description: "The wording makes it unclear how to decline"},
	{Issue: "Roach motel", Description: "Leaving takes far more steps than joining"},
	{Issue: "Pre-selected options", Description: "Paid extras are switched on by default"},
	{Issue: "False urgency", Description: "A countdown pushes you to decide quickly"},
}

var summaries = map[internal.Language]string{
	internal.LanguageEnglish:  "This screen shows %d manipulation signals.",
	internal.LanguageHindi:    "इस स्क्रीन पर %d हेरफेर संकेत हैं।",
	internal.LanguageHinglish: "Is screen par %d manipulation signals hain.",
}

type analyzeRequest struct {
	Screenshot string `json:"screenshot"`
	Language   string `json:"language"`
}

// Server is an in-memory analysis service
type Server struct {
	engine *gin.Engine
	now    func() time.Time

	mu       sync.RWMutex
	mode     Mode
	analyses []internal.Analysis
}

// Option configures a Server
type Option func(*Server)

// WithMode sets the initial mode
func WithMode(m Mode) Option {
	return func(s *Server) {
		s.mode = m
	}
}

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithHistory seeds the stored analyses, newest first
func WithHistory(list []internal.Analysis) Option {
	return func(s *Server) {
		s.analyses = append([]internal.Analysis(nil), list...)
	}
}

// New creates a stub server
func New(opts ...Option) *Server {
	s := &Server{
		now:  time.Now,
		mode: ModeNormal,
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(s.failureModes())

	api := router.Group("/api")
	api.GET("/health", s.health)
	api.POST("/analyze", s.analyze)
	api.GET("/history", s.history)
	api.GET("/analysis/:id", s.analysis)

	s.engine = router
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// SetMode switches the response mode
func (s *Server) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// Mode returns the current mode
func (s *Server) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Analyses returns a copy of the stored analyses, newest first
func (s *Server) Analyses() []internal.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]internal.Analysis{}, s.analyses...)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		internal.LogDebug("stub %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) failureModes() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch s.Mode() {
		case ModeHTMLGateway:
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(gatewayPage))
			c.Abort()
		case ModeReject:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "analysis backend unavailable"})
			c.Abort()
		default:
			c.Next()
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "darkscan-stub",
	})
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	payload := internal.StripDataURIPrefix(strings.TrimSpace(req.Screenshot))
	if payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "screenshot is required"})
		return
	}
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(image) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "screenshot is not valid base64"})
		return
	}
	lang, err := internal.ParseLanguage(req.Language)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	a := Score(image, lang, s.now())

	s.mu.Lock()
	s.analyses = append([]internal.Analysis{a}, s.analyses...)
	s.mu.Unlock()

	c.JSON(http.StatusOK, a)
}

func (s *Server) history(c *gin.Context) {
	if s.Mode() == ModeMalformedHistory {
		c.JSON(http.StatusOK, gin.H{"analyses": []gin.H{{"id": "broken", "dpi_score": "high"}}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analyses": s.Analyses()})
}

func (s *Server) analysis(c *gin.Context) {
	id := c.Param("id")
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.analyses {
		if a.ID == id {
			c.JSON(http.StatusOK, a)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Analysis not found"})
}

// Score derives a deterministic analysis from image bytes. The same image
// and language always yield the same id, score and signals.
func Score(image []byte, lang internal.Language, now time.Time) internal.Analysis {
	sum := sha256.Sum256(image)

	signals := internal.SignalBreakdown{
		Visual:   unit(sum[1]),
		Semantic: unit(sum[2]),
		Effort:   unit(sum[3]),
		Default:  unit(sum[4]),
		Pressure: unit(sum[5]),
	}
	var issues []internal.DetectedIssue
	for i, share := range signals.Shares() {
		if share.Value >= 0.5 {
			issues = append(issues, issueCatalog[i])
		}
	}
	if issues == nil {
		issues = []internal.DetectedIssue{}
	}

	score := int(sum[0]) % (internal.MaxScore + 1)
	seed := append(sum[:], []byte(lang)...)

	return internal.Analysis{
		ID:              uuid.NewSHA1(uuid.NameSpaceOID, seed).String(),
		DPIScore:        score,
		RiskLevel:       internal.Classify(score).Tier.Label(lang),
		SimpleSummary:   fmt.Sprintf(summaries[lang], len(issues)),
		DetectedIssues:  issues,
		SignalBreakdown: signals,
		Timestamp:       now.UTC().Format(pythonISOFormat),
		Language:        lang,
	}
}

func unit(b byte) float64 {
	return math.Round(float64(b)/255*100) / 100
}
