// Package reconciler embeds the reconciliation engine in a Go program.
//
// The client connects to the same PostgreSQL database the HTTP server uses
// and runs queries in-process:
//
//	client, _ := reconciler.New(ctx,
//	    reconciler.WithPostgres("postgres://localhost/refs"),
//	    reconciler.WithNamespace("https://ref.example.org/entities"),
//	)
//	defer client.Close()
//
//	cands, _ := client.ReconcileOne(ctx, reconciler.Query{
//	    Text: "Biskupin",
//	    Type: "site",
//	    Properties: map[string]string{"lat": "52.79", "lon": "17.73"},
//	})
//
// Controlled vocabularies reconciled by an LLM are registered with WithLookup
// and need at least one provider (WithOpenAI or WithGemini).
package reconciler
