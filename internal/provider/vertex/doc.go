// Package vertex runs the Gemini prompt and image requests through Vertex AI.
//
// Vertex AI authenticates with Google Cloud credentials instead of an API
// key. A service account key may be supplied directly with
// WithCredentialsJSON; otherwise Application Default Credentials are
// discovered in the usual order:
//
//  1. GOOGLE_APPLICATION_CREDENTIALS environment variable (path to service account key)
//  2. gcloud CLI credentials (gcloud auth application-default login)
//  3. Attached service account (GKE Workload Identity, Compute Engine, Cloud Run)
//
// # Usage
//
//	client, err := vertex.New(ctx, "my-project", "us-central1",
//	    vertex.WithCredentialsJSON(serviceAccount))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prompt, err := client.GeneratePrompt(ctx, img)
//
// Common Vertex AI regions include: us-central1, us-east4, us-west1,
// europe-west1, europe-west4, asia-northeast1, asia-southeast1.
package vertex
