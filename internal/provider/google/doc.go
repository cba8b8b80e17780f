// Package google implements image description and image generation on the
// Gemini API using the google.golang.org/genai SDK.
//
// Prompts are requested from a text model with a JSON response schema.
// Images are requested from an image-capable model with TEXT and IMAGE
// response modalities. Every response is checked for safety blocks,
// recitation and truncation before it is decoded.
package google
