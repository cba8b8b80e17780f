// Package history keeps the capped, newest-first list of past generations.
//
// Every Repository implementation shares the same contract: Add assigns a
// UUID and a millisecond timestamp, prepends the entry and truncates the
// list to the cap; List always returns entries ordered by descending
// timestamp; only the most recent entry may have an image attached later.
package history

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spetersoncode/promptcraft"
)

// DefaultCap is the maximum number of entries kept when no cap is configured.
const DefaultCap = 50

// StorageKey is the storage key the history list is persisted under.
const StorageKey = "promptcraft-history"

var (
	// ErrNotLatest is returned when attaching an image to an entry that is
	// not the most recent one.
	ErrNotLatest = errors.New("history: only the most recent entry can be updated")

	// ErrNotFound is returned when an entry does not exist.
	ErrNotFound = errors.New("history: entry not found")
)

// Item is one successful generation.
type Item struct {
	ID          string             `json:"id"`
	Prompt      string             `json:"prompt"`
	BasePrompt  string             `json:"basePrompt,omitempty"`
	Style       string             `json:"style,omitempty"`
	ImageData   string             `json:"imageData"`
	MimeType    string             `json:"mimeType,omitempty"`
	SourceImage *promptcraft.Image `json:"sourceImage,omitempty"`
	Timestamp   int64              `json:"timestamp"`
}

// Image returns the generated image of the entry.
func (it Item) Image() promptcraft.Image {
	mimeType := it.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return promptcraft.Image{Data: it.ImageData, MimeType: mimeType}
}

// Time returns the entry timestamp as a time.Time.
func (it Item) Time() time.Time {
	return time.UnixMilli(it.Timestamp)
}

// NewItem holds the caller-supplied fields of an entry.
type NewItem struct {
	Prompt      string
	BasePrompt  string
	Style       string
	Image       promptcraft.Image
	SourceImage *promptcraft.Image
}

// Repository stores the generation history.
type Repository interface {
	Add(ctx context.Context, item NewItem) (Item, error)
	List(ctx context.Context) ([]Item, error)
	AttachImage(ctx context.Context, id string, img promptcraft.Image) error
	Clear(ctx context.Context) error
}

// Option configures a repository.
type Option func(*options)

type options struct {
	cap int
	now func() time.Time
}

// WithCap sets the maximum number of entries. Values <= 0 use DefaultCap.
func WithCap(n int) Option {
	return func(o *options) {
		o.cap = n
	}
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cap <= 0 {
		o.cap = DefaultCap
	}
	return o
}

// newItem assigns an id and timestamp to a new entry.
func newItem(in NewItem, now time.Time) (Item, error) {
	if in.Image.IsZero() {
		return Item{}, promptcraft.NewError(promptcraft.KindInvalidInput, "a history entry needs a generated image", 0, promptcraft.ErrEmptyInput)
	}
	return Item{
		ID:          uuid.NewString(),
		Prompt:      in.Prompt,
		BasePrompt:  in.BasePrompt,
		Style:       in.Style,
		ImageData:   in.Image.Data,
		MimeType:    in.Image.MimeType,
		SourceImage: in.SourceImage,
		Timestamp:   now.UnixMilli(),
	}, nil
}

// prepend returns a new list holding item and items, newest first and
// truncated to max. items is not modified.
func prepend(items []Item, item Item, max int) []Item {
	out := make([]Item, 0, len(items)+1)
	out = append(out, item)
	out = append(out, items...)
	sortNewest(out)
	return truncate(out, max)
}

func truncate(items []Item, max int) []Item {
	if len(items) > max {
		return items[:max]
	}
	return items
}

// sortNewest orders items by descending timestamp. Equal timestamps keep
// their stored order.
func sortNewest(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})
}

// attach sets the image of the first entry when it matches id.
func attach(items []Item, id string, img promptcraft.Image) error {
	if len(items) == 0 {
		return ErrNotFound
	}
	if items[0].ID != id {
		for _, it := range items[1:] {
			if it.ID == id {
				return ErrNotLatest
			}
		}
		return ErrNotFound
	}
	items[0].ImageData = img.Data
	items[0].MimeType = img.MimeType
	return nil
}
