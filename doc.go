// Package vecrow is an embeddable multi-version row store with vector
// similarity search.
//
// Every write is stamped with a logical timestamp and kept as a new version,
// so reads can look at the store as of any past timestamp. Rows whose payload
// carries a string "text" field are embedded and added to a vector index.
//
// # Quick Start
//
//	ctx := context.Background()
//	emb := embedder.NewHTTP(embedder.Endpoint{BaseURL: "http://localhost:8080", Model: "mini"}, 384)
//	db, err := vecrow.Open(ctx, emb,
//	    vecrow.WithWAL("./wal/vecrow.wal"),
//	    vecrow.WithDataDir("./data"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	_, _ = db.Put(ctx, "doc-1", model.Document{"text": "quarterly revenue grew"})
//
//	results, _ := db.Search(ctx, "revenue", 5)
//	results, _ = db.Query(ctx, `FIND SIMILAR "revenue" IN default TOP 5`)
//
// # Durability
//
// With a WAL every insert is logged before it becomes visible, and Open
// replays the log. Flush writes the versions since the previous flush to row
// and column segments under the data directory and records them in a JSON
// manifest. WithArchive copies segments and manifests to a blob store such
// as S3 or MinIO.
//
// # Access
//
// WithAccess and DB.WithAccess gate search results: a descriptor that is
// neither responsible nor accountable sees no hits.
package vecrow
