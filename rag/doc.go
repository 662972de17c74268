// Package rag turns user-uploaded documents into retrievable context for
// agent prompts. Files are chunked on token boundaries, embedded, and stored
// in an in-memory vector index; RetrieveContext returns the chunks most
// similar to a query, concatenated for prompt injection.
package rag
