package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"

	"ledrx/pkg/app"
	"ledrx/pkg/app/config"
	"ledrx/pkg/chipset"
	"ledrx/pkg/rx"
	"ledrx/pkg/timing"
	"ledrx/pkg/trace"
)

const defaultConfigFile = "/opt/ledrx/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "receiver and datalogger for clockless (ws281x style) LED signals",
		Version: app.VERSION,
		Description: "Capture the edge timings of a single wire LED signal, decode them back" +
			"\n to the transmitted bytes and publish each frame to mqtt." +
			"\n Captures can be recorded as trace files and decoded again offline.",
		UsageText: "ledrx [--config <file>] [--log error|debug|trace]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the receiver with the configuration file ledrx.yaml" +
			"\n\t\tledrx --config /opt/ledrx/ledrx.yaml",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Value: "", Usage: "`LEVEL` defines the log level (fatal|info|warning|error|debug|trace)"},
		},
		Action: func(ctx *cli.Context) error {
			if err := cfg.LoadConfig(); err != nil {
				return err
			}

			debug.SetDebug(cfg.Log.File, cfg.Log.Flag)
			defer func() {
				debug.InfoLog.Printf("closing log file %s", cfg.Log.FileString)
				_ = cfg.Log.File.Close()
			}()

			a, err := app.New(cfg)
			defer func() {
				debug.InfoLog.Printf("closing app %s", app.Version())
				_ = a.Close()
			}()

			if err != nil {
				return err
			}

			debug.InfoLog.Printf("starting app %s", app.Version())
			if err = a.Run(); err != nil {
				return err
			}

			// capture exit signals to ensure resources are released on exit.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			// wait for an os.Interrupt signal (CTRL C)
			sig := <-quit
			debug.InfoLog.Printf("Got %s signal. Aborting...", sig)

			return nil
		},
		Commands: []*cli.Command{
			decodeCommand(),
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
	return
}

// decodeCommand decodes a recorded trace file offline and prints the bytes.
func decodeCommand() *cli.Command {
	var (
		chip        string
		toleranceNs uint
		gapNs       uint
		strict      bool
		errorRate   float64
		idleHigh    bool
	)

	return &cli.Command{
		Name:      "decode",
		Usage:     "decode a recorded capture trace and print the bytes",
		ArgsUsage: "<tracefile>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "chipset", Destination: &chip, Value: "", Usage: "chipset `NAME`, default is the one recorded in the trace"},
			&cli.UintFlag{Name: "tolerance", Destination: &toleranceNs, Value: uint(timing.DefaultTolerance), Usage: "decode window tolerance in `NS`"},
			&cli.UintFlag{Name: "gap", Destination: &gapNs, Value: 0, Usage: "gap tolerance in `NS`, 0 disables gap handling"},
			&cli.BoolFlag{Name: "strict", Destination: &strict, Usage: "fail on a high pulse mismatch rate instead of truncating"},
			&cli.Float64Flag{Name: "errorrate", Destination: &errorRate, Value: rx.DefaultMaxErrorRate, Usage: "mismatch `RATIO` tolerated by strict decoding"},
			&cli.BoolFlag{Name: "idlehigh", Destination: &idleHigh, Usage: "the line idles high, transmission starts with a low edge"},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return fmt.Errorf("expected exactly one trace file")
			}

			t, err := trace.Load(ctx.Args().First())
			if err != nil {
				return err
			}

			if chip == "" {
				chip = t.Header.Chipset
			}
			nominal, err := chipset.Lookup(chip)
			if err != nil {
				return fmt.Errorf("chipset %q: %w (known: %v)", chip, err, chipset.Names())
			}

			profile := timing.NewProfile(nominal, uint32(toleranceNs))
			profile.GapTolerance = uint32(gapNs)

			out := make([]byte, len(t.Edges)/16+1)
			var n int
			if strict {
				n, err = rx.DecodeStrict(t.Edges, &profile, !idleHigh, out, errorRate)
			} else {
				n, err = rx.Decode(t.Edges, &profile, !idleHigh, out)
			}
			if err != nil {
				return fmt.Errorf("decoding trace %s: %w", t.Header.ID, err)
			}

			fmt.Printf("trace %s: chipset %s, %d edges, %d bytes\n", t.Header.ID, nominal.Name, len(t.Edges), n)
			if n > 0 {
				fmt.Println(hex.Dump(out[:n]))
			}
			return nil
		},
	}
}
