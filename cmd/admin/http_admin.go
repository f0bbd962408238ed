package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func mobsCmd(args []string) {
	fs := flag.NewFlagSet("mobs", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/mobs"
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func spawnCmd(args []string) {
	fs := flag.NewFlagSet("spawn", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	worldName := fs.String("world", "world", "world name")
	sp := fs.String("species", "", "species tag, e.g. ZOMBIE")
	customID := fs.String("custom", "", "custom mob id (instead of -species)")
	name := fs.String("name", "", "display name (optional)")
	level := fs.Int("level", 1, "level")
	x := fs.Float64("x", 0, "x")
	y := fs.Float64("y", 64, "y")
	z := fs.Float64("z", 0, "z")
	_ = fs.Parse(args)

	body := map[string]any{"world": *worldName, "x": *x, "y": *y, "z": *z}
	if *customID != "" {
		body["custom"] = *customID
	} else {
		body["species"] = *sp
		body["name"] = *name
		body["level"] = *level
	}
	b, _ := json.Marshal(body)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/spawn"
	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Post(u, "application/json", bytes.NewReader(b))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func sweepCmd(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/admin/v1/sweep"
	req, _ := http.NewRequest(http.MethodPost, u, nil)
	cl := &http.Client{Timeout: 10 * time.Second}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(string(b))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
