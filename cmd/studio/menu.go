package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Category groups related actions together.
type Category string

const (
	CategoryImage    Category = "Image"
	CategoryPrompt   Category = "Prompt"
	CategoryGenerate Category = "Generate"
	CategoryHistory  Category = "History"
	CategoryKey      Category = "API Key"
)

// categoryOrder defines the display order of categories.
var categoryOrder = []Category{
	CategoryImage,
	CategoryPrompt,
	CategoryGenerate,
	CategoryHistory,
	CategoryKey,
}

// Action is a single menu entry.
type Action struct {
	Name        string
	Description string
	Category    Category
	NeedsKey    bool
	Run         func(ctx context.Context, a *app)
}

// actions is the registry of all menu entries.
var actions = []Action{
	// Image
	{Name: "upload", Description: "Upload an image from disk", Category: CategoryImage, Run: actionUpload},
	{Name: "remove", Description: "Remove the uploaded image", Category: CategoryImage, Run: actionRemove},
	{Name: "start-over", Description: "Clear the session", Category: CategoryImage, Run: actionStartOver},

	// Prompt
	{Name: "describe", Description: "Create a structured prompt from the image", Category: CategoryPrompt, NeedsKey: true, Run: actionDescribe},
	{Name: "describe-text", Description: "Create a one-paragraph prompt from the image", Category: CategoryPrompt, NeedsKey: true, Run: actionDescribeText},
	{Name: "inspire", Description: "Get three creative prompt ideas", Category: CategoryPrompt, NeedsKey: true, Run: actionInspire},
	{Name: "edit-field", Description: "Edit one field of the structured prompt", Category: CategoryPrompt, Run: actionEditField},
	{Name: "edit", Description: "Rewrite the prompt", Category: CategoryPrompt, Run: actionEditPrompt},
	{Name: "style", Description: "Change the art style", Category: CategoryPrompt, Run: actionStyle},

	// Generate
	{Name: "generate", Description: "Generate images from the prompt", Category: CategoryGenerate, NeedsKey: true, Run: actionGenerate},
	{Name: "save", Description: "Save the last generated images", Category: CategoryGenerate, Run: actionSave},
	{Name: "dismiss", Description: "Dismiss the error banner", Category: CategoryGenerate, Run: actionDismiss},

	// History
	{Name: "history", Description: "List past generations", Category: CategoryHistory, Run: actionHistory},
	{Name: "load", Description: "Load a past generation", Category: CategoryHistory, Run: actionLoad},
	{Name: "clear", Description: "Clear the history", Category: CategoryHistory, Run: actionClearHistory},

	// API Key
	{Name: "key", Description: "Enter an API key", Category: CategoryKey, Run: actionEnterKey},
	{Name: "forget-key", Description: "Forget the stored API key", Category: CategoryKey, Run: actionForgetKey},
}

// showMenu displays the numbered menu with category headers and returns the
// selected action, or nil if the user quits.
func showMenu() *Action {
	byCategory := make(map[Category][]int)
	for i, act := range actions {
		byCategory[act.Category] = append(byCategory[act.Category], i)
	}

	fmt.Println("┌────────────────────────────────────────┐")
	fmt.Println("│                 Menu                   │")
	fmt.Println("└────────────────────────────────────────┘")

	for _, cat := range categoryOrder {
		indices, ok := byCategory[cat]
		if !ok || len(indices) == 0 {
			continue
		}

		fmt.Printf("─── %s ───\n", cat)
		for _, i := range indices {
			act := actions[i]
			fmt.Printf("  [%2d] %-14s %s\n", i+1, act.Name, act.Description)
		}
	}
	fmt.Println("  [q]  Quit")
	fmt.Println()

	idx := promptSelection(len(actions))
	if idx < 0 {
		return nil
	}
	return &actions[idx]
}

// promptSelection reads a menu number or action name and returns its
// index, or -1 if the user quits.
func promptSelection(total int) int {
	for {
		input := strings.ToLower(ask("Select an action (number or name, 'q' to quit): "))

		if input == "q" || input == "quit" {
			return -1
		}

		if n, err := strconv.Atoi(input); err == nil {
			if n >= 1 && n <= total {
				return n - 1
			}
			fmt.Printf("Number out of range: %d (must be 1-%d)\n", n, total)
			continue
		}

		for i, act := range actions {
			if act.Name == input {
				return i
			}
		}
		fmt.Printf("Unknown action: %q\n", input)
	}
}

// ask prints prompt and returns the trimmed answer. Closed input ends
// the program.
func ask(prompt string) string {
	fmt.Print(prompt)
	answer, err := reader.ReadString('\n')
	if err == io.EOF && answer == "" {
		fmt.Println()
		os.Exit(0)
	}
	return strings.TrimSpace(answer)
}

func askYesNo(question string) bool {
	answer := strings.ToLower(ask(question + " [y/N]: "))
	return answer == "y" || answer == "yes"
}

// askInt reads a number, returning def on empty or invalid input.
func askInt(prompt string, def int) int {
	answer := ask(fmt.Sprintf("%s [%d]: ", prompt, def))
	if n, err := strconv.Atoi(answer); err == nil {
		return n
	}
	return def
}
