// cli talks to a running cinderella server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  cli submit <repo-url> [--branch NAME | --tag NAME] [--file PATH] [--server URL]")
	fmt.Fprintln(os.Stderr, "  cli status <build-id> [--server URL]")
	fmt.Fprintln(os.Stderr, "  cli list [--server URL]")
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	var serverURL, branch, tag, file string
	flags := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	flags.StringVar(&serverURL, "server", envOr("CINDERELLA_SERVER", "http://localhost:8080"), "server base url")
	flags.StringVarP(&branch, "branch", "b", "", "branch to build")
	flags.StringVarP(&tag, "tag", "t", "", "tag to build")
	flags.StringVarP(&file, "file", "f", "", "pipeline definition inside the repository")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	client := &http.Client{Timeout: 30 * time.Second}

	switch args[0] {
	case "submit":
		if flags.NArg() != 1 {
			usage()
			return fmt.Errorf("submit needs a repository url")
		}
		body, err := json.Marshal(map[string]string{
			"repo_url":      flags.Arg(0),
			"branch":        branch,
			"tag":           tag,
			"pipeline_file": file,
		})
		if err != nil {
			return err
		}
		resp, err := client.Post(serverURL+"/builds", "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		return printResponse(resp, out)

	case "status":
		if flags.NArg() != 1 {
			usage()
			return fmt.Errorf("status needs a build id")
		}
		resp, err := client.Get(serverURL + "/builds/" + flags.Arg(0))
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		return printResponse(resp, out)

	case "list":
		resp, err := client.Get(serverURL + "/builds")
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		return printResponse(resp, out)

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printResponse(resp *http.Response, out io.Writer) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("server answered %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	_, err = out.Write(body)
	return err
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
