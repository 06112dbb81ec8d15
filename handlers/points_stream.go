package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"thyknow/middleware"
	"thyknow/services"

	"github.com/gofiber/fiber/v2"
)

const streamPollInterval = 2 * time.Second

// streamPoints pushes new points ledger rows to the mini-app as server-sent events, so the pet
// view refreshes when the bot records a reflection.
func streamPoints(history services.HistoryStore, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.Clone(middleware.UserID(c))
		done := c.Context().Done()

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ticker := time.NewTicker(streamPollInterval)
			defer ticker.Stop()

			cursor := now()

			// Initial keepalive (comment event)
			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					rows, err := history.PointsSince(ctx, userID, cursor)
					cancel()
					if err != nil {
						log.Printf("❌ [SSE] points query failed for %s: %v", userID, err)
						continue
					}

					if len(rows) == 0 {
						w.WriteString(":\n\n")
					}
					for _, r := range rows {
						payload, _ := json.Marshal(r)
						fmt.Fprintf(w, "event: points\ndata: %s\n\n", payload)
						cursor = r.CreatedAt
					}

					if err := w.Flush(); err != nil {
						// Client disconnected
						return
					}

				case <-done:
					// server shutting down
					return
				}
			}
		})
		return nil
	}
}
