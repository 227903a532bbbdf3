package app

import (
	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go
//  function. See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// HandleData is the web handler for the last decoded frame and the receive
// counters.
func (app *App) HandleData() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request data")

		app.frame.RLock()
		f := app.frame.data
		app.frame.RUnlock()

		app.stats.RLock()
		s := app.stats.data
		app.stats.RUnlock()

		return ctx.JSON(struct {
			Frame Frame `json:"frame"`
			Stats Stats `json:"stats"`
		}{Frame: f, Stats: s})
	}
}

// HandleEdges is the web handler for the raw edges of the last capture,
// meant for timing diagnostics.
func (app *App) HandleEdges() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request edges")

		app.edges.RLock()
		edges := app.edges.data
		app.edges.RUnlock()

		return ctx.JSON(struct {
			Count int         `json:"count"`
			Edges interface{} `json:"edges"`
		}{Count: len(edges), Edges: edges})
	}
}
