package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the configuration flags from args.
//
// Flags:
//
//	-a REST API base address
//	-t REST request timeout (e.g. "15s")
//	-token bearer token for REST requests
//	-p push channel websocket URL
//	-dial-timeout push channel handshake timeout
//	-max-pending cap of subscriptions queued before the push channel connects
//	-max-message-bytes push frame read limit (-1 disables)
//	-r forced reload interval (e.g. "5m", "0s" disables)
//	-eager apply write responses to the cache immediately
//	-s development server address in format [host]:[port]
//	-c/-config json file path with configs
func ParseFlags(args []string) (*StructuredConfig, error) {
	var serverAddress NetAddress
	var adapterAddress, token, pushAddress, jsonConfigPath string
	var requestTimeout, dialTimeout, reloadInterval time.Duration
	var maxPending int
	var maxMessageBytes int64
	var eager bool

	fs := flag.NewFlagSet("go-sync-cache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&adapterAddress, "a", "", "REST API base address")
	fs.DurationVar(&requestTimeout, "t", 0, "REST request timeout (e.g., 15s)")
	fs.StringVar(&token, "token", "", "Bearer token")
	fs.StringVar(&pushAddress, "p", "", "Push channel websocket URL")
	fs.DurationVar(&dialTimeout, "dial-timeout", 0, "Push channel handshake timeout")
	fs.IntVar(&maxPending, "max-pending", 0, "Maximum queued subscriptions")
	fs.Int64Var(&maxMessageBytes, "max-message-bytes", 0, "Push frame read limit in bytes")
	fs.DurationVar(&reloadInterval, "r", 0, "Forced reload interval (e.g., 5m)")
	fs.BoolVar(&eager, "eager", false, "Apply write responses to the cache immediately")
	fs.Var(&serverAddress, "s", "Development server address host:port")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		Adapter: Adapter{
			HTTPAddress:    adapterAddress,
			RequestTimeout: requestTimeout,
			Token:          token,
		},
		Transport: Transport{
			PushAddress:     pushAddress,
			DialTimeout:     dialTimeout,
			MaxPending:      maxPending,
			MaxMessageBytes: maxMessageBytes,
		},
		Sync: Sync{
			ReloadInterval: reloadInterval,
			EagerUpdate:    eager,
		},
		Server: Server{
			HTTPAddress: serverAddress.String(),
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress, or an empty
// string when neither part is set.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is
// "localhost" or empty, and returns an error if the format or values are
// invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "localhost" && host != "" {
		ip := net.ParseIP(host)
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
