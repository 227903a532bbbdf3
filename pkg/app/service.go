package app

import (
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/womat/debug"

	"ledrx/pkg/capture"
	"ledrx/pkg/edge"
	"ledrx/pkg/mqtt"
	"ledrx/pkg/rx"
	"ledrx/pkg/trace"
)

// service runs the receive loop: arm the capture source, wait for the round
// to complete, decode the buffer and publish the frame. The buffer is reset
// and the source re-armed for the next round.
func (app *App) service() {
	for {
		if err := app.source.Start(); err != nil {
			debug.ErrorLog.Printf("can't arm capture source: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var c capture.Completion
		select {
		case <-app.shutdown:
			return
		case c = <-app.source.Done():
		}

		app.handleCapture(c)
		app.buffer.Reset()

		// a replayed trace is decoded exactly once
		if c.Reason == capture.EOF && app.config.Source == "replay" {
			debug.InfoLog.Print("replay exhausted, receive loop stopped")
			return
		}
	}
}

// handleCapture decodes one completed capture round and publishes the result.
func (app *App) handleCapture(c capture.Completion) {
	debug.DebugLog.Printf("capture complete: %v, %v edges", c.Reason, c.Edges)

	// snapshot for decoding, diagnostics and recording; the buffer is reset
	// before the next round starts
	edges := make([]edge.Edge, app.buffer.EdgeCount())
	app.buffer.CopyEdges(edges, 0)

	app.edges.Lock()
	app.edges.data = edges
	app.edges.Unlock()

	app.stats.Lock()
	app.stats.data.Captures++
	app.stats.data.Edges += uint64(len(edges))
	if c.Reason == capture.Overflow {
		app.stats.data.Overflows++
	}
	app.stats.data.LastReason = c.Reason.String()
	app.stats.Unlock()

	if app.config.Record != "" {
		app.record(edges)
	}

	// a pulse pair per bit, 8 bits per byte
	out := make([]byte, len(edges)/16+1)

	var n int
	var err error
	if app.config.Strict {
		n, err = rx.DecodeStrict(edges, &app.config.Profile, app.config.Rx.StartPolarityLow, out, app.config.ErrorRate)
	} else {
		n, err = rx.Decode(edges, &app.config.Profile, app.config.Rx.StartPolarityLow, out)
	}

	if err != nil {
		debug.ErrorLog.Printf("decoding capture: %v", err)

		app.stats.Lock()
		app.stats.data.DecodeErrors++
		app.stats.Unlock()
		return
	}

	if n == 0 {
		debug.DebugLog.Print("capture decoded to no bytes")
		return
	}

	f := Frame{
		TimeStamp: time.Now(),
		Chipset:   app.config.Timing.Name,
		Bytes:     n,
		Data:      hex.EncodeToString(out[:n]),
	}
	debug.DebugLog.Printf("frame: %v bytes %v", f.Bytes, f.Data)

	app.frame.Lock()
	app.frame.data = f
	app.frame.Unlock()

	app.stats.Lock()
	app.stats.data.Frames++
	app.stats.data.Bytes += uint64(n)
	app.stats.Unlock()

	app.sendMQTT(app.config.MQTT.Topic, f)
}

// record writes the capture as a trace file into the configured directory.
func (app *App) record(edges []edge.Edge) {
	t := trace.New(app.config.Timing.Name, "", edges)
	path := filepath.Join(app.config.Record, t.Header.ID+".trace")

	if err := t.Save(path); err != nil {
		debug.ErrorLog.Printf("recording trace %q: %v", path, err)
		return
	}
	debug.TraceLog.Printf("recorded trace %q", path)
}

// sendMQTT sends a message struct to the mqtt broker.
func (app *App) sendMQTT(topic string, message interface{}) {
	go func(t string, r interface{}) {
		debug.TraceLog.Printf("prepare mqtt message %v %v", t, r)

		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			debug.ErrorLog.Printf("sendMQTT marshal: %v", err)
			return
		}

		app.mqtt.C <- mqtt.Message{
			Qos:      0,
			Retained: true,
			Topic:    t,
			Payload:  b,
		}
	}(topic, message)
}
