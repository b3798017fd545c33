// Package shutdown ties command execution to process signals and runs
// cleanup hooks once the command is done.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	ctx, stop := h.Context(context.Background())
//	defer stop()
//	h.OnShutdown(store.Close)
//	defer h.Shutdown()
package shutdown
