// SPDX-FileCopyrightText: 2024 codingiran
// SPDX-License-Identifier: Apache-2.0

package main

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/goschtalt/goschtalt"
	_ "github.com/goschtalt/goschtalt/pkg/typical"
	_ "github.com/goschtalt/properties-decoder"
	_ "github.com/goschtalt/yaml-decoder"
	_ "github.com/goschtalt/yaml-encoder"
	"github.com/k0kubun/pp/v3"
	"github.com/xmidt-org/arrange/arrangehttp"
	"github.com/xmidt-org/sallust"
	"gopkg.in/dealancer/validate.v2"
)

//go:embed default-config.yaml
var defaultConfigFile []byte

// Config is the configuration for the wsagent.
type Config struct {
	Connection Connection
	Reconnect  Reconnect
	Network    Network
	Logger     sallust.Config
}

// Connection describes the websocket endpoint and transport behavior.
type Connection struct {
	// URL is the ws:// or wss:// endpoint to connect to.
	URL string

	// Backend selects the transport implementation.  Valid values are
	// "coder" (the default) and "gorilla".
	Backend string

	// AdditionalHeaders are any additional headers for the WS connection.
	AdditionalHeaders http.Header

	// ConnectTimeout bounds each connection attempt.  If this is not set,
	// the backend's default applies.
	ConnectTimeout time.Duration

	// AutoPingInterval is the period between automatic pings while
	// connected.  Zero disables auto-ping.
	AutoPingInterval time.Duration

	// MaxMessageBytes is the largest allowable message to receive.
	MaxMessageBytes int64

	// HTTPClient is the configuration for the HTTP client used for the
	// upgrade request.
	HTTPClient arrangehttp.ClientConfig
}

// Reconnect configures the reconnect strategy.
type Reconnect struct {
	// Policy selects the reconnect policy.  Valid values are "exponential"
	// (the default), "fixed", "linear" and "none".
	Policy string

	// Base is the growth factor for the exponential policy.
	Base float64

	// Scale multiplies the exponential growth term.
	Scale time.Duration

	// Delay is the constant interval for the fixed policy and the
	// per-attempt increment for the linear policy.
	Delay time.Duration

	// MaxInterval caps the computed delay.
	MaxInterval time.Duration

	// Jitter is the symmetric perturbation fraction for the exponential
	// policy.
	Jitter float64

	// MaxRetries is the attempt budget.  Zero means unlimited.
	MaxRetries uint
}

// Network configures the network path watcher.
type Network struct {
	// Debounce is how long an interface change must hold before it is
	// reported.  If this is not set, the default is 1 second.
	Debounce time.Duration
}

// Collect and process the configuration files and env vars and
// produce a configuration object.
func provideConfig(cli *CLI) (*goschtalt.Config, error) {
	gs, err := goschtalt.New(
		goschtalt.StdCfgLayout(applicationName, cli.Files...),
		goschtalt.ConfigIs("two_words"),
		goschtalt.DefaultUnmarshalOptions(
			goschtalt.WithValidator(
				goschtalt.ValidatorFunc(validate.Validate),
			),
		),
		// Seed the program with the default, built-in configuration
		goschtalt.AddBuffer("!built-in.yaml", defaultConfigFile, goschtalt.AsDefault()),
	)
	if err != nil {
		return nil, err
	}

	if cli.Default != "" {
		err := os.WriteFile("./"+cli.Default, defaultConfigFile, 0644) // nolint: gosec
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(-1)
		}
		os.Exit(0)
	}

	if cli.Show {
		// handleCLIShow handles the -s/--show option where the configuration is
		// shown, then the program is exited.
		//
		// Exit with success because if the configuration is broken it will be
		// very hard to debug where the problem originates.  This way you can
		// see the configuration and then run the service with the same
		// configuration to see the error.

		fmt.Fprintln(os.Stdout, gs.Explain().String())

		var effective Config
		if err := gs.Unmarshal(goschtalt.Root, &effective); err != nil {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintln(os.Stdout, "## Final Configuration\n---")
			pp.Println(effective)
		}

		os.Exit(0)
	}

	var tmp Config
	err = gs.Unmarshal(goschtalt.Root, &tmp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "There is a critical error in the configuration.")
		fmt.Fprintln(os.Stderr, "Run with -s/--show to see the configuration.")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Exit here to prevent a very difficult to debug error from occurring.
		os.Exit(0)
	}

	return gs, nil
}
