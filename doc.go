// Package boardex groups Markdown vault documents into board views: one or
// two axes over frontmatter properties, optional value transforms, and a
// drop-resolution protocol that maps a card's landing bucket back to the
// property value to write.
//
// # Querying a board
//
//	client, _ := boardex.Open(boardex.WithVault("/path/to/vault"))
//	defer client.Close()
//
//	b := boardex.NewBoard("tasks").
//	    X("status").
//	    XValues("todo", "doing", "done").
//	    SortBy("priority", true)
//	res, _ := client.Query(ctx, b)
//
// Boards are plain text under the hood; QuerySpec accepts the same block a
// file would hold:
//
//	res, _ := client.QuerySpec(ctx, "source: tasks\nx-axis: status")
//
// # Resolving a drop
//
// Moving a card declares a target bucket per axis. Plain axes write the
// bucket label itself; transformed and range axes need the caller to choose
// the raw value, supplied through a PromptFunc:
//
//	out, _ := client.ResolveDrop(ctx, b,
//	    boardex.Drop{Document: "tasks/alpha.md", XTarget: boardex.Target("done")},
//	    nil,
//	)
//
// # Typed access
//
// DecodeDocuments maps result documents onto tagged structs:
//
//	type Task struct {
//	    Name   string  `board:"file.name"`
//	    Status string  `board:"status"`
//	    Points float64 `board:"points"`
//	}
//
//	tasks, _ := boardex.DecodeDocuments[Task](res.Documents)
package boardex
