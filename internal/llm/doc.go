// Package llm provides the generative-model side of finlens: a
// provider-neutral Client with a Gemini implementation, and the Classifier,
// Definer and MenuFinder built on it. Requests share rate limiting, optional
// retries and a response cache (in memory or Redis) through Service.
package llm
