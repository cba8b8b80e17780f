// Package studio drives one upload → prompt → image session.
//
// A Session owns the uploaded image, the editable prompt, the selected art
// style and the last generated images. Every error from a provider call is
// turned into a dismissible Banner; an invalid key additionally sends the
// key manager back to NoKey.
package studio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/apikey"
	"github.com/spetersoncode/promptcraft/history"
)

// Stage is the visible step of the session.
type Stage string

const (
	StageUploading Stage = "uploading"
	StagePrompting Stage = "prompting"
)

var (
	// ErrBusy is returned when an operation is triggered while another one
	// is still running.
	ErrBusy = errors.New("studio: an operation is already in progress")

	// ErrNoImage is returned when an operation needs an uploaded image.
	ErrNoImage = errors.New("studio: no image uploaded")

	// ErrNoStructuredPrompt is returned by SetField when the current prompt
	// was not produced as structured fields.
	ErrNoStructuredPrompt = errors.New("studio: prompt has no structured fields")
)

// Banner is the error shown to the user until dismissed.
type Banner struct {
	Kind      promptcraft.ErrorKind
	Message   string
	Retryable bool
	Cooldown  time.Duration
}

// NewBanner renders err as a banner.
func NewBanner(err error) *Banner {
	return &Banner{
		Kind:      promptcraft.KindOf(err),
		Message:   promptcraft.UserMessage(err),
		Retryable: promptcraft.IsTransient(err),
		Cooldown:  promptcraft.RetryAfterOf(err),
	}
}

// ProviderFunc builds a provider for the given key.
type ProviderFunc func(key string) (promptcraft.FullProvider, error)

// Snapshot is a copy of the session state.
type Snapshot struct {
	Stage      Stage
	Image      *promptcraft.Image
	Structured *promptcraft.StructuredPrompt
	Prompt     string
	Style      string
	Generated  []promptcraft.Image
	Banner     *Banner
	Busy       bool
}

// Session is a single user's studio session. It is safe for concurrent use.
type Session struct {
	keys         *apikey.Manager
	newProvider  ProviderFunc
	history      history.Repository
	defaultStyle string
	logger       *slog.Logger

	mu          sync.Mutex
	stage       Stage
	image       *promptcraft.Image
	structured  *promptcraft.StructuredPrompt
	prompt      string
	style       string
	generated   []promptcraft.Image
	banner      *Banner
	busy        bool
	provider    promptcraft.FullProvider
	providerKey string
}

// Option configures a Session.
type Option func(*Session)

// WithDefaultStyle sets the style applied to freshly generated prompts.
func WithDefaultStyle(style string) Option {
	return func(s *Session) {
		s.defaultStyle = style
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session in the Uploading stage.
func NewSession(keys *apikey.Manager, newProvider ProviderFunc, repo history.Repository, opts ...Option) *Session {
	s := &Session{
		keys:         keys,
		newProvider:  newProvider,
		history:      repo,
		defaultStyle: promptcraft.DefaultStyle,
		logger:       slog.Default(),
		stage:        StageUploading,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.style = s.defaultStyle
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Stage:     s.stage,
		Prompt:    s.prompt,
		Style:     s.style,
		Generated: append([]promptcraft.Image(nil), s.generated...),
		Busy:      s.busy,
	}
	if s.image != nil {
		img := *s.image
		snap.Image = &img
	}
	if s.structured != nil {
		sp := *s.structured
		snap.Structured = &sp
	}
	if s.banner != nil {
		b := *s.banner
		snap.Banner = &b
	}
	return snap
}

// Upload replaces the uploaded image and returns to the Uploading stage.
func (s *Session) Upload(img promptcraft.Image) error {
	if img.IsZero() {
		return promptcraft.NewError(promptcraft.KindInvalidInput, "the uploaded image is empty", 0, promptcraft.ErrEmptyInput)
	}
	if !promptcraft.IsAllowedMIMEType(img.MimeType) {
		return &promptcraft.ImageError{Op: "type", Source: "upload", Err: errors.New("unsupported image type " + img.MimeType)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.image = &img
	s.resetPrompt()
	return nil
}

// RemoveImage drops the uploaded image. The selected style is kept.
func (s *Session) RemoveImage() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.image = nil
	s.resetPrompt()
	return nil
}

// StartOver clears the whole session, including the selected style.
func (s *Session) StartOver() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.image = nil
	s.resetPrompt()
	s.style = s.defaultStyle
	return nil
}

func (s *Session) resetPrompt() {
	s.stage = StageUploading
	s.structured = nil
	s.prompt = ""
	s.generated = nil
	s.banner = nil
}

// CreatePrompt describes the uploaded image as a structured prompt and
// moves to the Prompting stage.
func (s *Session) CreatePrompt(ctx context.Context) error {
	img, p, err := s.beginWithImage()
	if err != nil {
		return err
	}

	sp, err := p.GeneratePrompt(ctx, img)
	if err != nil {
		return s.fail(ctx, "prompt", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.structured = sp
	s.style = s.defaultStyle
	s.prompt = sp.Combine() + promptcraft.StyleSuffix(s.style)
	s.stage = StagePrompting
	return nil
}

// CreatePromptText describes the uploaded image as a single paragraph and
// moves to the Prompting stage. The prompt has no structured fields.
func (s *Session) CreatePromptText(ctx context.Context) error {
	img, p, err := s.beginWithImage()
	if err != nil {
		return err
	}

	text, err := p.GeneratePromptText(ctx, img)
	if err != nil {
		return s.fail(ctx, "prompt_text", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.structured = nil
	s.style = s.defaultStyle
	s.prompt = strings.TrimSpace(text) + promptcraft.StyleSuffix(s.style)
	s.stage = StagePrompting
	return nil
}

// CreateInspiration returns creative prompt ideas for the uploaded image.
// The session state is unchanged; pass a chosen idea to UseInspiration.
func (s *Session) CreateInspiration(ctx context.Context) ([]string, error) {
	img, p, err := s.beginWithImage()
	if err != nil {
		return nil, err
	}

	ideas, err := p.GenerateInspiration(ctx, img)
	if err != nil {
		return nil, s.fail(ctx, "inspiration", err)
	}
	s.end()
	return ideas, nil
}

// UseInspiration makes idea the editable prompt, with the current style.
func (s *Session) UseInspiration(idea string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.structured = nil
	s.prompt = strings.TrimSpace(idea) + promptcraft.StyleSuffix(s.style)
	s.stage = StagePrompting
	return nil
}

// SetField edits one structured field and rebuilds the prompt with the
// current style suffix.
func (s *Session) SetField(field promptcraft.PromptField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.structured == nil {
		return ErrNoStructuredPrompt
	}
	if err := s.structured.Set(field, value); err != nil {
		return err
	}
	s.prompt = s.structured.Combine() + promptcraft.StyleSuffix(s.style)
	return nil
}

// SetPrompt replaces the editable prompt text.
func (s *Session) SetPrompt(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.prompt = text
	return nil
}

// ChangeStyle swaps the style suffix of the prompt.
func (s *Session) ChangeStyle(style string) error {
	if !isArtStyle(style) {
		return promptcraft.NewError(promptcraft.KindInvalidInput, "unknown art style "+style, 0, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.prompt != "" {
		s.prompt = promptcraft.ApplyStyle(s.prompt, s.style, style)
	}
	s.style = style
	return nil
}

func isArtStyle(style string) bool {
	for _, st := range promptcraft.ArtStyles {
		if st == style {
			return true
		}
	}
	return false
}

// GenerateImage generates count images from the current prompt, using the
// uploaded image as reference when there is one. All images must succeed;
// on success each one is recorded in history.
func (s *Session) GenerateImage(ctx context.Context, count int, preserveIdentity bool) ([]promptcraft.Image, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	prompt, style := s.prompt, s.style
	var ref *promptcraft.Image
	if s.image != nil {
		img := *s.image
		ref = &img
	}
	if strings.TrimSpace(prompt) == "" {
		s.mu.Unlock()
		return nil, promptcraft.NewError(promptcraft.KindInvalidInput, "a prompt is required to generate an image", 0, promptcraft.ErrEmptyInput)
	}
	p, err := s.providerLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.busy = true
	s.banner = nil
	s.mu.Unlock()

	images, err := promptcraft.GenerateImages(ctx, p, prompt, ref,
		promptcraft.WithImageCount(count),
		promptcraft.WithPreserveIdentity(preserveIdentity),
	)
	if err != nil {
		return nil, s.fail(ctx, "image", err)
	}

	if err := s.record(ctx, prompt, style, ref, images); err != nil {
		s.logger.Warn("failed to record history", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.generated = images
	s.stage = StagePrompting
	return images, nil
}

// record stores the generated images. When the latest entry has the same
// prompt and source, the first image replaces its image instead of adding
// a new entry.
func (s *Session) record(ctx context.Context, prompt, style string, ref *promptcraft.Image, images []promptcraft.Image) error {
	rest := images
	items, err := s.history.List(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 && items[0].Prompt == prompt && sameImage(items[0].SourceImage, ref) {
		if err := s.history.AttachImage(ctx, items[0].ID, images[0]); err != nil {
			return err
		}
		rest = images[1:]
	}

	base := promptcraft.StripStyle(prompt, style)
	for _, img := range rest {
		if _, err := s.history.Add(ctx, history.NewItem{
			Prompt:      prompt,
			BasePrompt:  base,
			Style:       style,
			Image:       img,
			SourceImage: ref,
		}); err != nil {
			return err
		}
	}
	return nil
}

func sameImage(a, b *promptcraft.Image) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Data == b.Data && a.MimeType == b.MimeType
}

// History returns the stored generations, newest first.
func (s *Session) History(ctx context.Context) ([]history.Item, error) {
	return s.history.List(ctx)
}

// LoadFromHistory restores the prompt, style, source image and generated
// image of a history entry.
func (s *Session) LoadFromHistory(ctx context.Context, id string) error {
	items, err := s.history.List(ctx)
	if err != nil {
		return err
	}
	var item *history.Item
	for i := range items {
		if items[i].ID == id {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return history.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	style := item.Style
	if style == "" {
		style = promptcraft.StyleNone
	}
	prompt := item.Prompt
	if item.BasePrompt != "" {
		prompt = item.BasePrompt + promptcraft.StyleSuffix(style)
	}
	s.image = item.SourceImage
	s.structured = nil
	s.prompt = prompt
	s.style = style
	s.generated = []promptcraft.Image{item.Image()}
	s.banner = nil
	s.stage = StagePrompting
	return nil
}

// ClearHistory removes every history entry.
func (s *Session) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

// DismissError hides the banner.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = nil
}

// beginWithImage marks the session busy and returns the inputs of an
// image-based call.
func (s *Session) beginWithImage() (promptcraft.Image, promptcraft.FullProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return promptcraft.Image{}, nil, ErrBusy
	}
	if s.image == nil {
		return promptcraft.Image{}, nil, ErrNoImage
	}
	p, err := s.providerLocked()
	if err != nil {
		return promptcraft.Image{}, nil, err
	}
	s.busy = true
	s.banner = nil
	return *s.image, p, nil
}

// providerLocked returns the provider for the current key, building a new
// one when the key changed.
func (s *Session) providerLocked() (promptcraft.FullProvider, error) {
	key, err := s.keys.Key()
	if err != nil {
		return nil, err
	}
	if s.provider != nil && s.providerKey == key {
		return s.provider, nil
	}
	p, err := s.newProvider(key)
	if err != nil {
		return nil, err
	}
	s.provider, s.providerKey = p, key
	return p, nil
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// fail records err as the banner and clears the busy flag. An invalid key
// also resets the key manager.
func (s *Session) fail(ctx context.Context, op string, err error) error {
	if s.keys.HandleError(ctx, err) {
		s.logger.Warn("API key rejected, key cleared", "operation", op)
	}
	s.logger.Error("operation failed", "operation", op, "kind", promptcraft.KindOf(err), "error", err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.banner = NewBanner(err)
	if op != "image" && op != "inspiration" {
		s.stage = StageUploading
	}
	if promptcraft.IsInvalidKey(err) {
		s.provider, s.providerKey = nil, ""
	}
	return err
}
