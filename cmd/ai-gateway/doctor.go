package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// doctorProbe is one minimal request this command fires at a running
// gateway, exercising exactly the wire shape that endpoint expects.
type doctorProbe struct {
	name string
	path string
	body map[string]any
}

func newDoctorCmd() *cobra.Command {
	var port int
	var providerModel string
	var endpoint string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Probe a running gateway's routes and report pass/fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			base := fmt.Sprintf("http://127.0.0.1:%d", port)
			client := &http.Client{Timeout: 30 * time.Second}

			probes := doctorProbes(providerModel, endpoint)
			ok := true
			for _, p := range probes {
				status, respBody, err := runDoctorProbe(client, base, p)
				if err != nil {
					ok = false
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %-20s %v\n", p.name, err)
					continue
				}
				if status >= 400 {
					ok = false
				}
				line := "PASS"
				if status >= 400 {
					line = "FAIL"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-20s HTTP %d\n", line, p.name, status)
				if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", respBody)
				}
			}

			if !ok {
				return fmt.Errorf("doctor: one or more probes failed")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 3000, "gateway port to probe")
	cmd.Flags().StringVar(&providerModel, "provider", "", "qualified provider/model id to probe with (e.g. openai/gpt-4o-mini)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "both", "which surface to probe: chat, messages, or both")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print response bodies")
	return cmd
}

func doctorProbes(providerModel, endpoint string) []doctorProbe {
	probes := []doctorProbe{{name: "models", path: "/v1/models"}}

	if providerModel == "" {
		return probes
	}

	chat := doctorProbe{
		name: "chat.completions",
		path: "/v1/chat/completions",
		body: map[string]any{
			"model":    providerModel,
			"messages": []map[string]any{{"role": "user", "content": "ping"}},
		},
	}
	messages := doctorProbe{
		name: "messages",
		path: "/v1/messages",
		body: map[string]any{
			"model":      providerModel,
			"max_tokens": 16,
			"messages":   []map[string]any{{"role": "user", "content": "ping"}},
		},
	}

	switch endpoint {
	case "chat":
		probes = append(probes, chat)
	case "messages":
		probes = append(probes, messages)
	default:
		probes = append(probes, chat, messages)
	}
	return probes
}

func runDoctorProbe(client *http.Client, base string, p doctorProbe) (int, string, error) {
	var req *http.Request
	var err error
	if p.body == nil {
		req, err = http.NewRequest(http.MethodGet, base+p.path, nil)
	} else {
		data, marshalErr := json.Marshal(p.body)
		if marshalErr != nil {
			return 0, "", marshalErr
		}
		req, err = http.NewRequest(http.MethodPost, base+p.path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	}
	if err != nil {
		return 0, "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body), nil
}
