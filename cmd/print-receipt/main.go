// Command print-receipt fetches the receipt of an order from the POS API and
// writes it to stdout, ready to be piped to a receipt printer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		server  string
		timeout time.Duration
	)
	flag.StringVar(&server, "server", "", "POS API base URL (or POS_SERVER_URL env, default http://localhost:8000)")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <order-id>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if server == "" {
		server = os.Getenv("POS_SERVER_URL")
	}
	if server == "" {
		server = "http://localhost:8000"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client := resty.New().
		SetBaseURL(server).
		SetTimeout(timeout).
		SetRetryCount(0)

	text, err := fetchReceipt(ctx, client, flag.Arg(0))
	if err != nil {
		slog.Error("fetch receipt failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Print(text)
}

// fetchReceipt returns the plain text receipt of order id.
func fetchReceipt(ctx context.Context, client *resty.Client, id string) (string, error) {
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParam("format", "text").
		Get("/orders/" + url.PathEscape(id) + "/receipt")
	if err != nil {
		return "", errors.Wrap(err, "request")
	}
	if resp.StatusCode() != http.StatusOK {
		return "", errors.Errorf("server returned %d: %s", resp.StatusCode(), errorMessage(resp.Body()))
	}
	return resp.String(), nil
}

// errorMessage extracts the message of an API error body, falling back to
// the raw body.
func errorMessage(body []byte) string {
	var msg string
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "message" {
			return d.Skip()
		}
		v, err := d.Str()
		msg = v
		return err
	})
	if err != nil || msg == "" {
		return string(body)
	}
	return msg
}
