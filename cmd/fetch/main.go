// Command fetch is a small curl-alike exercising the client: one URL in,
// response body out, with the engine's timeouts, retries and redirect
// policy exposed as flags. Defaults can also come from FETCH_* variables.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/netforge/fetch"
)

type envDefaults struct {
	Timeout        time.Duration `envconfig:"TIMEOUT"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT"`
	Retries        int           `envconfig:"RETRIES"`
	MaxRedirects   int           `envconfig:"MAX_REDIRECTS" default:"10"`
	Proxy          string        `envconfig:"PROXY"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var env envDefaults
	if err := envconfig.Process("fetch", &env); err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		return 2
	}

	flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	method := flags.StringP("method", "X", "GET", "request method")
	headers := flags.StringArrayP("header", "H", nil, "request header, name:value, repeatable")
	data := flags.StringP("data", "d", "", "request body")
	output := flags.StringP("output", "o", "", "write body to file instead of stdout")
	include := flags.BoolP("include", "i", false, "print the response head before the body")
	verbose := flags.BoolP("verbose", "v", false, "log engine activity and dump wire traffic")
	timeout := flags.Duration("timeout", env.Timeout, "per-attempt timeout, send through body completion")
	connectTimeout := flags.Duration("connect-timeout", env.ConnectTimeout, "timeout for obtaining a connection")
	retries := flags.Int("retries", env.Retries, "retry attempts for reusable-body requests")
	maxRedirects := flags.Int("max-redirects", env.MaxRedirects, "redirect hop limit, negative to not follow")
	proxy := flags.String("proxy", env.Proxy, "proxy URL")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: fetch [flags] <url>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		return 2
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 2
	}

	client := &fetch.Client{Config: fetch.Config{
		ConnectTimeout: *connectTimeout,
		RequestTimeout: *timeout,
		Retry:          *retries,
	}}
	if *maxRedirects < 0 {
		client.Config.Redirect = fetch.RedirectNone()
	} else {
		client.Config.Redirect = fetch.RedirectLimited(*maxRedirects)
	}
	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
			return 2
		}
		defer logger.Sync()
		client.Config.Logger = logger
		client.Config.Intercept = wireDump{}
	}
	if *proxy != "" {
		p := *proxy
		client.UseDialer(func(fetch.Dialer) fetch.Dialer {
			return &fetch.CoreDialer{
				GetProxy: func(context.Context, *fetch.Request) (string, error) { return p, nil },
			}
		})
	}

	req := &fetch.Request{Method: *method, URL: flags.Arg(0), Header: fetch.NewHeader()}
	for _, h := range *headers {
		name, value, ok := cutHeader(h)
		if !ok {
			fmt.Fprintf(os.Stderr, "fetch: malformed header %q, want name:value\n", h)
			return 2
		}
		req.Header.Add(name, value)
	}
	if *data != "" {
		req.Body = *data
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	resp, err := client.CtxDo(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	out := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}
	if *include {
		fmt.Fprintf(out, "%s %s\r\n", resp.Proto, resp.Status)
		for _, f := range resp.Header.Fields() {
			fmt.Fprintf(out, "%s: %s\r\n", f.Name, f.Value)
		}
		fmt.Fprint(out, "\r\n")
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		return 1
	}
	return 0
}

func cutHeader(s string) (name, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			value = s[i+1:]
			for len(value) > 0 && value[0] == ' ' {
				value = value[1:]
			}
			return s[:i], value, i > 0
		}
	}
	return "", "", false
}

// wireDump mirrors raw traffic to stderr, one direction marker per chunk.
type wireDump struct{}

func (wireDump) Outbound(p []byte) error {
	fmt.Fprintf(os.Stderr, ">> %q\n", p)
	return nil
}

func (wireDump) Inbound(p []byte) error {
	fmt.Fprintf(os.Stderr, "<< %q\n", p)
	return nil
}
