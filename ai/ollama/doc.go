// Package ollama implements ai.Embedder against an Ollama server using
// langchaingo's ollama client.
package ollama
