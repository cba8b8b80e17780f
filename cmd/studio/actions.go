package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spetersoncode/promptcraft"
	"github.com/spetersoncode/promptcraft/apikey"
	"github.com/spetersoncode/promptcraft/studio"
)

// showStatus prints the session state and the error banner, if any.
func (a *app) showStatus() {
	snap := a.session.Snapshot()

	fmt.Println("┌────────────────────────────────────────┐")
	fmt.Println("│               Session                  │")
	fmt.Println("└────────────────────────────────────────┘")
	fmt.Printf("Stage:  %s\n", snap.Stage)
	if snap.Image != nil {
		fmt.Printf("Image:  %s (%d bytes base64)\n", snap.Image.MimeType, len(snap.Image.Data))
	} else {
		fmt.Println("Image:  none")
	}
	fmt.Printf("Style:  %s\n", snap.Style)
	if snap.Prompt != "" {
		fmt.Printf("Prompt: %s\n", snap.Prompt)
	}
	if n := len(snap.Generated); n > 0 {
		fmt.Printf("Images: %d generated\n", n)
	}
	if b := snap.Banner; b != nil {
		fmt.Printf("\n✗ %s\n", b.Message)
		if b.Retryable {
			if b.Cooldown > 0 {
				fmt.Printf("  (you can retry in %s)\n", b.Cooldown)
			} else {
				fmt.Println("  (you can retry)")
			}
		}
	}
	fmt.Println()
}

// report prints a failed action. Banner-worthy errors are shown by
// showStatus, so only the rest are printed here.
func (a *app) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, apikey.ErrNoKey):
		fmt.Println("✗ An API key is required. Choose 'key' to enter one.")
	case a.session.Snapshot().Banner != nil:
	default:
		fmt.Printf("✗ %s\n", promptcraft.UserMessage(err))
	}
}

func actionUpload(ctx context.Context, a *app) {
	path := ask("Image path: ")
	if path == "" {
		return
	}
	img, err := promptcraft.ReadImageFile(path)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	a.report(a.session.Upload(img))
}

func actionRemove(ctx context.Context, a *app) {
	a.report(a.session.RemoveImage())
}

func actionStartOver(ctx context.Context, a *app) {
	a.report(a.session.StartOver())
}

func actionDescribe(ctx context.Context, a *app) {
	fmt.Println("Analyzing image...")
	a.report(a.session.CreatePrompt(ctx))
}

func actionDescribeText(ctx context.Context, a *app) {
	fmt.Println("Analyzing image...")
	a.report(a.session.CreatePromptText(ctx))
}

func actionInspire(ctx context.Context, a *app) {
	fmt.Println("Looking for inspiration...")
	ideas, err := a.session.CreateInspiration(ctx)
	if err != nil {
		a.report(err)
		return
	}
	for i, idea := range ideas {
		fmt.Printf("  [%d] %s\n", i+1, idea)
	}
	n := askInt("Use which idea (0 to skip)", 0)
	if n < 1 || n > len(ideas) {
		return
	}
	a.report(a.session.UseInspiration(ideas[n-1]))
}

func actionEditField(ctx context.Context, a *app) {
	snap := a.session.Snapshot()
	if snap.Structured == nil {
		fmt.Println("✗ The current prompt has no fields. Use 'describe' first.")
		return
	}
	for i, f := range promptcraft.PromptFields {
		fmt.Printf("  [%d] %-12s %s\n", i+1, f, snap.Structured.Get(f))
	}
	n := askInt("Field", 0)
	if n < 1 || n > len(promptcraft.PromptFields) {
		return
	}
	value := ask("New value: ")
	a.report(a.session.SetField(promptcraft.PromptFields[n-1], value))
}

func actionEditPrompt(ctx context.Context, a *app) {
	text := ask("New prompt: ")
	if text == "" {
		return
	}
	a.report(a.session.SetPrompt(text))
}

func actionStyle(ctx context.Context, a *app) {
	current := a.session.Snapshot().Style
	for i, s := range promptcraft.ArtStyles {
		marker := " "
		if s == current {
			marker = "*"
		}
		fmt.Printf("  [%d]%s %s\n", i+1, marker, s)
	}
	n := askInt("Style", 0)
	if n < 1 || n > len(promptcraft.ArtStyles) {
		return
	}
	a.report(a.session.ChangeStyle(promptcraft.ArtStyles[n-1]))
}

func actionGenerate(ctx context.Context, a *app) {
	snap := a.session.Snapshot()
	count := askInt(fmt.Sprintf("How many images (1-%d)", promptcraft.MaxImageCount), a.preset.ImageCount)
	preserve := a.preset.PreserveIdentity
	if snap.Image != nil {
		preserve = askYesNo("Preserve the identity of the person in the image?")
	}

	fmt.Println("Generating...")
	images, err := a.session.GenerateImage(ctx, count, preserve)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Printf("✓ Generated %d image(s)\n", len(images))
	if askYesNo("Save them now?") {
		a.save(images, preserve, snap.Image != nil)
	}
}

func actionSave(ctx context.Context, a *app) {
	snap := a.session.Snapshot()
	if len(snap.Generated) == 0 {
		fmt.Println("✗ Nothing to save yet.")
		return
	}
	a.save(snap.Generated, false, snap.Image != nil)
}

func (a *app) save(images []promptcraft.Image, preserve, hasReference bool) {
	snap := a.session.Snapshot()
	dir, err := a.output.Save(images, studio.Metadata{
		Provider:         string(a.cfg.Provider),
		Prompt:           snap.Prompt,
		Style:            snap.Style,
		PreserveIdentity: preserve,
		HasReference:     hasReference,
	})
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	fmt.Printf("✓ Saved to %s\n", dir)
}

func actionDismiss(ctx context.Context, a *app) {
	a.session.DismissError()
}

func actionHistory(ctx context.Context, a *app) {
	items, err := a.session.History(ctx)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("No history yet.")
		return
	}
	for i, it := range items {
		fmt.Printf("  [%2d] %s  %s\n", i+1, it.Time().Format("2006-01-02 15:04"), truncate(it.Prompt, 60))
	}
}

func actionLoad(ctx context.Context, a *app) {
	items, err := a.session.History(ctx)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	if len(items) == 0 {
		fmt.Println("No history yet.")
		return
	}
	actionHistory(ctx, a)
	n := askInt("Load which entry", 0)
	if n < 1 || n > len(items) {
		return
	}
	a.report(a.session.LoadFromHistory(ctx, items[n-1].ID))
}

func actionClearHistory(ctx context.Context, a *app) {
	if !askYesNo("Delete every history entry?") {
		return
	}
	if err := a.session.ClearHistory(ctx); err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	fmt.Println("✓ History cleared")
}

func actionEnterKey(ctx context.Context, a *app) {
	key := ask("API key: ")
	if key == "" {
		return
	}
	if err := a.keys.Submit(ctx, key); err != nil {
		if errors.Is(err, apikey.ErrUnsupported) {
			fmt.Printf("✗ The %s key mode does not accept typed keys.\n", a.keys.Strategy().Name())
			return
		}
		fmt.Printf("✗ %s\n", promptcraft.UserMessage(err))
		return
	}
	fmt.Println("✓ Key accepted")
}

func actionForgetKey(ctx context.Context, a *app) {
	if _, ok := a.keys.Strategy().(*apikey.ProxyStrategy); ok {
		fmt.Println("✗ No key is stored for this provider.")
		return
	}
	a.keys.Reset(ctx)
	fmt.Printf("Key state: %s\n", a.keys.State())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
