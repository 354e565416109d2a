package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	grpcserver "github.com/emmett/dictate/internal/server/grpc"
)

var (
	addr    = flag.String("addr", "127.0.0.1:50551", "Address of the dictate control service")
	timeout = flag.Duration("timeout", 5*time.Second, "Request timeout")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] toggle|status\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	conn, err := grpcserver.Dial(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	client := grpcserver.NewControlClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var out string
	switch cmd := flag.Arg(0); cmd {
	case "toggle":
		out, err = client.Toggle(ctx)
	case "status":
		out, err = client.Status(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
