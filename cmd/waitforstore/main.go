package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"mediagate/media-api/internal/storage"
)

func main() {
	uri := os.Getenv("STORE_URI")
	if uri == "" {
		fmt.Fprintln(os.Stderr, "STORE_URI is required")
		os.Exit(2)
	}
	database := os.Getenv("STORE_DATABASE")
	if database == "" {
		database = "media_api"
	}
	kind, err := storage.KindOf(uri)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("WAIT_FOR_STORE_TIMEOUT_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			fmt.Fprintf(os.Stderr, "invalid WAIT_FOR_STORE_TIMEOUT_SEC: %q\n", raw)
			os.Exit(2)
		}
		timeout = time.Duration(secs) * time.Second
	}

	deadline := time.Now().Add(timeout)
	for {
		backend, err := storage.Open(context.Background(), storage.Options{
			URI:            uri,
			Database:       database,
			ConnectTimeout: 2 * time.Second,
		})
		if err == nil {
			_ = backend.Close(context.Background())
			fmt.Printf("%s ready\n", kind)
			return
		}
		if time.Now().After(deadline) {
			fmt.Fprintf(os.Stderr, "%s not ready within %s: %v\n", kind, timeout, err)
			os.Exit(1)
		}
		time.Sleep(2 * time.Second)
	}
}
