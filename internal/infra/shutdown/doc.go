// Package shutdown provides graceful shutdown for keymesh.
//
// A Handler waits for SIGINT, SIGTERM or an explicit Trigger and then runs
// the registered hooks in reverse registration order under a shared
// timeout:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("redis", redisServer.Shutdown)
//	err := h.Wait(ctx)
package shutdown
