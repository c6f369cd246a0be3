package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rigado/mgmt"
	"github.com/rigado/mgmt/cmd/mgmtctl/config"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "mgmtctl"
	app.Usage = "exchange raw frames with the Bluetooth management control channel"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "YAML config file (default $" + config.EnvConfig + ")"},
		cli.BoolFlag{Name: "debug, d", Usage: "log hex dumps of all traffic"},
		cli.BoolFlag{Name: "json", Usage: "print exchanges as JSON"},
		cli.DurationFlag{Name: "retry-time", Usage: "override transport.maxRetryTimeMs"},
		cli.DurationFlag{Name: "retry-interval", Usage: "override transport.retryIntervalMs"},
		cli.IntFlag{Name: "chunk-size", Usage: "override transport.chunkSize"},
		cli.IntFlag{Name: "max-size", Usage: "override transport.maxResponseSize"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "probe",
			Usage:  "open and close the control channel",
			Action: cmdProbe,
		},
		{
			Name:      "send",
			Usage:     "write one frame and print the response",
			ArgsUsage: "HEX",
			Action:    cmdSend,
		},
		{
			Name:   "listen",
			Usage:  "print frames until interrupted",
			Action: cmdListen,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies global flag overrides and returns a
// disconnected transport. extra options are applied after the config file's.
func setup(c *cli.Context, extra ...mgmt.Option) (*mgmt.Transport, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	if c.GlobalIsSet("retry-time") {
		cfg.Transport.MaxRetryTimeMs = int(c.GlobalDuration("retry-time") / time.Millisecond)
	}
	if c.GlobalIsSet("retry-interval") {
		cfg.Transport.RetryIntervalMs = int(c.GlobalDuration("retry-interval") / time.Millisecond)
	}
	if c.GlobalIsSet("chunk-size") {
		cfg.Transport.ChunkSize = c.GlobalInt("chunk-size")
	}
	if c.GlobalIsSet("max-size") {
		cfg.Transport.MaxResponseSize = c.GlobalInt("max-size")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	mgmt.SetLogger(mgmt.NewLogger(l))
	if c.GlobalBool("debug") {
		mgmt.SetLogLevelMax()
	}

	return mgmt.New(append(cfg.Options(), extra...)...)
}

func connect(c *cli.Context, extra ...mgmt.Option) (*mgmt.Transport, error) {
	t, err := setup(c, extra...)
	if err != nil {
		return nil, err
	}
	if err := t.Connect(); err != nil {
		return nil, err
	}
	return t, nil
}

func cmdProbe(c *cli.Context) error {
	t, err := connect(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer t.Close()

	fmt.Println("control channel available")
	return nil
}

func cmdSend(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("missing HEX payload", 2)
	}
	b, err := parsePayload(c.Args())
	if err != nil {
		return cli.NewExitError(err, 2)
	}

	t, err := connect(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer t.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = mgmt.WithSigHandler(ctx, cancel)

	if err := t.Write(b); err != nil {
		return cli.NewExitError(err, 1)
	}
	rsp, err := t.Read(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	return printExchange(os.Stdout, c.GlobalBool("json"), exchange{Sent: b, Received: rsp})
}

func cmdListen(c *cli.Context) error {
	// an idle channel times out every retry budget; that is not an error here
	t, err := connect(c, mgmt.OptLogTimeouts(false))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer t.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = mgmt.WithSigHandler(ctx, cancel)

	for {
		rsp, err := t.Read(ctx)
		switch {
		case mgmt.IsCanceled(err):
			return nil
		case mgmt.IsTimeout(err):
			continue
		case err != nil:
			return cli.NewExitError(err, 1)
		}

		if err := printExchange(os.Stdout, c.GlobalBool("json"), exchange{Received: rsp}); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
