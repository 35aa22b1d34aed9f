package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"waystones.ai/internal/sim/game"
)

// stateCmd prints the live loop metrics of a running server.
func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("json", false, "print the response body as is")
	_ = fs.Parse(args)

	body, m, err := fetchState(&http.Client{Timeout: 5 * time.Second}, *baseURL)
	if err != nil {
		fail(1, "state:", err)
	}
	if *raw {
		fmt.Println(string(body))
		return
	}
	writeState(os.Stdout, m)
}

func fetchState(cl *http.Client, baseURL string) ([]byte, game.Metrics, error) {
	var m game.Metrics
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/admin/v1/state"
	resp, err := cl.Get(u)
	if err != nil {
		return nil, m, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, m, err
	}
	if resp.StatusCode/100 != 2 {
		return body, m, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return body, m, fmt.Errorf("decode: %w", err)
	}
	return body, m, nil
}

func writeState(out io.Writer, m game.Metrics) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "tick\t%s\n", humanize.Comma(int64(m.Tick)))
	fmt.Fprintf(tw, "players\t%d\n", m.Players)
	fmt.Fprintf(tw, "waystones\t%d\n", m.Waystones)
	attempts := m.Teleports + m.Denied
	rate := "-"
	if attempts > 0 {
		rate = fmt.Sprintf("%.1f%%", 100*float64(m.Teleports)/float64(attempts))
	}
	fmt.Fprintf(tw, "teleports\t%s ok, %s denied (%s ok)\n", humanize.Comma(m.Teleports), humanize.Comma(m.Denied), rate)
	fmt.Fprintf(tw, "step\t%.3f ms\n", m.StepMS)
	fmt.Fprintf(tw, "queues\tinbox=%d join=%d leave=%d\n", m.QueueDepths.Inbox, m.QueueDepths.Join, m.QueueDepths.Leave)
	_ = tw.Flush()
}
