package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/authkeeper/internal/ctl"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: authctl [-a address] <register|reset>")
	flag.PrintDefaults()
}

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	addr := flag.String("a", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	app := ctl.NewApp(*addr, os.Stdin, os.Stdout)

	var err error
	switch flag.Arg(0) {
	case "register":
		err = app.Register(ctx)
	case "reset":
		err = app.Reset(ctx)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%v", err)
	}

}
