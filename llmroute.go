// Package llmroute routes chat requests across free-tier and paid LLM
// backends with model fallback, quota tracking and reply validation.
//
// The router keeps a preference-ordered model list, talks to each model
// through its backend adapter, and reacts to failures per error class:
// context overruns escalate to the paid tier, rate limits mark the model
// exhausted, content-filter rejections drop the model for the request.
// Length-truncated replies are transparently continued and stitched
// together.
//
// Basic usage:
//
//	creds := llmroute.CredentialsFromEnv("GITHUB_API_KEY", "OPENAI_API_KEY")
//	client, err := llmroute.New(creds)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	conv := llmroute.Conversation{
//		{Role: llmroute.RoleSystem, Content: "You are a helpful assistant."},
//		{Role: llmroute.RoleUser, Content: "Say hello."},
//	}
//	reply, err := client.GetModelResponse(ctx, conv, llmroute.RequestOptions{})
package llmroute

import (
	"context"
	"os"

	"github.com/personagen/llmroute/internal/secret"
	"github.com/personagen/llmroute/pkg/provider"
	"github.com/personagen/llmroute/pkg/types"
)

// Re-exported conversation types, so basic use needs only this package.
type (
	Message        = types.Message
	Conversation   = types.Conversation
	Role           = types.Role
	RequestOptions = types.RequestOptions
)

const (
	RoleSystem    = types.RoleSystem
	RoleUser      = types.RoleUser
	RoleAssistant = types.RoleAssistant
)

// CredentialsFromEnv builds credentials from environment variables: every
// variable named freePrefix or freePrefix_N joins the free pool, and
// paidVar (if set) becomes the paid key.
func CredentialsFromEnv(freePrefix, paidVar string) *provider.Credentials {
	creds := &provider.Credentials{
		Free: provider.NewKeyPool(secret.KeysWithPrefix(freePrefix)...),
	}
	if paidVar != "" {
		creds.Paid = os.Getenv(paidVar)
	}
	return creds
}

// CredentialsFromRefs resolves secret references (env://NAME,
// vault://path#key, or literal keys) through a secret manager.
func CredentialsFromRefs(ctx context.Context, secrets *secret.Manager, freeRefs []string, paidRef string) (*provider.Credentials, error) {
	freeKeys, err := secrets.GetAll(ctx, freeRefs)
	if err != nil {
		return nil, err
	}
	creds := &provider.Credentials{Free: provider.NewKeyPool(freeKeys...)}
	if paidRef != "" {
		paid, err := secrets.Get(ctx, paidRef)
		if err != nil {
			return nil, err
		}
		creds.Paid = paid
	}
	return creds, nil
}
