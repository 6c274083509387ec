package learn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
	"github.com/notactuallytreyanastasio/browser-mcp/idgen"
)

// Config configures the learning service.
type Config struct {
	// CombineFields bundles all fields learned in one session into a
	// single multi-rule pattern instead of one pattern per field.
	CombineFields bool

	// Matcher resolves element descriptions. Default: KeywordMatcher.
	Matcher Matcher

	// Environment echo recorded on session metadata.
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Matcher == nil {
		c.Matcher = KeywordMatcher{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service owns the session and pattern registries and drives the learning
// lifecycle against one browser driver. The registries are process-wide,
// in-memory, and unevicted: they grow for the life of the process and are
// discarded on shutdown (learned patterns survive through the sink;
// in-flight sessions do not).
//
// Operations against one session are expected to be issued sequentially by
// one caller; the mutex guards only the registry maps, not a session's
// interaction list. Different sessions share the single underlying page
// context, so concurrent navigation across sessions will corrupt each
// other's page state.
type Service struct {
	cfg          Config
	driver       browser.Driver
	sink         PatternSink
	log          *slog.Logger
	newPatternID idgen.Generator

	mu       sync.Mutex
	sessions map[string]*Session
	patterns map[string]*Pattern
}

// NewService creates the learning service. sink may be nil, in which case
// learned patterns live only in the in-memory registry.
func NewService(driver browser.Driver, sink PatternSink, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		cfg:          cfg,
		driver:       driver,
		sink:         sink,
		log:          cfg.Logger,
		newPatternID: idgen.Prefixed("pat_", idgen.UUIDv7()),
		sessions:     make(map[string]*Session),
		patterns:     make(map[string]*Pattern),
	}
}

// Close tears down the registries. In-flight sessions are discarded.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.sessions); n > 0 {
		s.log.Warn("learn: discarding in-flight sessions on shutdown", "count", n)
	}
	s.sessions = make(map[string]*Session)
	s.patterns = make(map[string]*Pattern)
	return nil
}

// StartSession navigates to targetURL and, on success, registers a new
// session in recording state. A baseline snapshot is taken for logging
// only; it is not stored as an interaction. If navigation fails, no
// session is registered.
func (s *Service) StartSession(ctx context.Context, name, targetURL string) (*Session, error) {
	if err := s.driver.Navigate(ctx, targetURL); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNavigation, targetURL, err)
	}

	els, err := s.driver.Snapshot(ctx)
	if err != nil {
		s.log.Warn("learn: baseline snapshot failed", "url", targetURL, "error", err)
	}

	sess := &Session{
		ID:        sessionID(name),
		Name:      name,
		Site:      siteOf(targetURL),
		URL:       targetURL,
		Status:    StatusRecording,
		StartedAt: time.Now(),
		Meta: SessionMeta{
			ViewportWidth:  s.cfg.ViewportWidth,
			ViewportHeight: s.cfg.ViewportHeight,
			UserAgent:      s.cfg.UserAgent,
		},
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.Info("learn: session started",
		"session", sess.ID, "site", sess.Site, "elements", len(els))
	return sess, nil
}

// RecordClick matches description against the current snapshot, clicks the
// first matching element, and appends the interaction with a fresh page
// context. A click the driver rejects is recorded as a failed result, not
// raised as an error; only an unmatched description is an error.
func (s *Service) RecordClick(ctx context.Context, sessionID, description string) (*Interaction, error) {
	sess := s.GetSession(sessionID)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	els, err := s.driver.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", ErrDriverAction, err)
	}

	el, ok := s.cfg.Matcher.Match(description, els)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrElementNotFound, description)
	}

	result := Result{Success: true}
	if err := s.driver.Click(ctx, el.Selector); err != nil {
		result = Result{Success: false, Error: err.Error()}
	}

	inter := Interaction{
		At:      time.Now(),
		Action:  Action{Kind: ActionClick, Selector: el.Selector},
		Element: &el,
		Result:  result,
		Context: s.captureContext(ctx),
	}
	sess.Interactions = append(sess.Interactions, inter)
	sess.Meta.TotalInteractions++

	s.log.Debug("learn: click recorded",
		"session", sess.ID, "selector", el.Selector, "success", result.Success)
	return &inter, nil
}

// RecordExtraction matches description against the current snapshot and
// appends one extract interaction per matching element, tagged with
// fieldName, so a single call can seed many training examples at once.
// Zero matches is an error and leaves the session unchanged. Returns the
// number of examples captured.
func (s *Service) RecordExtraction(ctx context.Context, sessionID, fieldName, description string) (int, error) {
	sess := s.GetSession(sessionID)
	if sess == nil {
		return 0, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	els, err := s.driver.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: snapshot: %v", ErrDriverAction, err)
	}

	matched := s.cfg.Matcher.MatchAll(description, els)
	if len(matched) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoElementsFound, description)
	}

	// Re-snapshot unconditionally, even though extraction does not
	// navigate, so every interaction carries consistent context.
	pctx := s.captureContext(ctx)
	now := time.Now()

	for i := range matched {
		el := matched[i]
		sess.Interactions = append(sess.Interactions, Interaction{
			At:      now,
			Action:  Action{Kind: ActionExtract, Field: fieldName, Selector: el.Selector},
			Element: &el,
			Result:  Result{Success: true, Data: el.Text},
			Context: pctx,
		})
	}
	sess.Meta.TotalInteractions += len(matched)
	sess.Meta.SuccessfulExtractions += len(matched)

	s.log.Debug("learn: extraction recorded",
		"session", sess.ID, "field", fieldName, "examples", len(matched))
	return len(matched), nil
}

// AnalyzeSession synthesizes patterns from the session's extract
// interactions, validates each against the session's URL, persists them,
// and transitions the session to completed. Re-analyzing a completed
// session is allowed: it re-runs analysis and the fresh pattern set
// supersedes the previous one in the registry.
func (s *Service) AnalyzeSession(ctx context.Context, sessionID string) ([]*Pattern, error) {
	sess := s.GetSession(sessionID)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	sess.Status = StatusAnalyzing

	patterns := synthesize(sess, s.cfg.CombineFields, s.newPatternID)

	for _, p := range patterns {
		v := s.runValidation(ctx, p, sess.URL)
		appendValidation(p, v)
	}

	if s.sink != nil {
		for _, p := range patterns {
			if err := s.sink.SavePattern(ctx, sess.Site, record(p)); err != nil {
				sess.Status = StatusFailed
				return nil, fmt.Errorf("learn: save pattern %s: %w", p.ID, err)
			}
		}
	}

	s.mu.Lock()
	for _, old := range sess.Patterns {
		delete(s.patterns, old.ID)
	}
	for _, p := range patterns {
		s.patterns[p.ID] = p
	}
	s.mu.Unlock()

	sess.Patterns = patterns
	now := time.Now()
	sess.CompletedAt = &now
	sess.Status = StatusCompleted

	s.log.Info("learn: session analyzed",
		"session", sess.ID, "patterns", len(patterns),
		"interactions", sess.Meta.TotalInteractions)
	return patterns, nil
}

// GetSession returns the session with the given id, or nil.
func (s *Service) GetSession(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// ActiveSessions returns all registered sessions ordered by start time.
func (s *Service) ActiveSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// GetPattern returns the registered pattern with the given id, or nil.
func (s *Service) GetPattern(id string) *Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patterns[id]
}

// Patterns returns all registered patterns ordered by id.
func (s *Service) Patterns() []*Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Pattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EndSession removes the session from the registry. A session still in
// recording state gets a final analysis pass first, so no session is
// discarded without attempting pattern extraction; an analysis failure is
// logged but does not keep the session alive.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	sess := s.GetSession(sessionID)
	if sess == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if sess.Status == StatusRecording {
		if _, err := s.AnalyzeSession(ctx, sessionID); err != nil {
			s.log.Warn("learn: final analysis on end failed",
				"session", sessionID, "error", err)
		}
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.log.Info("learn: session ended", "session", sessionID)
	return nil
}

// captureContext re-snapshots the page and queries URL/title, tolerating
// driver failures (context is best-effort, never a reason to drop an
// interaction).
func (s *Service) captureContext(ctx context.Context) PageContext {
	pctx := PageContext{}

	els, err := s.driver.Snapshot(ctx)
	if err != nil {
		s.log.Debug("learn: context snapshot failed", "error", err)
	} else {
		pctx.Elements = els
	}

	raw, err := s.driver.Evaluate(ctx, pageInfoJS)
	if err != nil {
		s.log.Debug("learn: page info failed", "error", err)
		return pctx
	}
	var info pageInfo
	if err := json.Unmarshal([]byte(raw), &info); err == nil {
		pctx.URL = info.URL
		pctx.Title = info.Title
	}
	return pctx
}

// sessionSuffix keeps same-named sessions started within the same second
// distinct; the timestamp alone is only second-resolution.
var sessionSuffix = idgen.NanoID(6)

// sessionID derives an id from the start time, the session name, and a
// random suffix.
func sessionID(name string) string {
	return idgen.Timestamped(func() string { return slug(name) + "_" + sessionSuffix() })()
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "session"
	}
	return b.String()
}

// siteOf extracts the domain a session is scoped to.
func siteOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
