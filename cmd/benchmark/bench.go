package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort = 9091
	appPort  = 8081
)

// Document the mock model returns: minimal but valid, so every request
// exercises extraction, validation, and persistence.
const planContent = `{"name":"Bench Plan","goal":"strength","difficulty":"beginner",` +
	`"durationWeeks":4,"sessionsPerWeek":3,"sessions":[{"dayOfWeek":1,` +
	`"name":"Full Body A","durationMinutes":45,"mainWorkout":[{"name":"Goblet Squat",` +
	`"category":"strength","sets":3,"reps":"8-12","restSeconds":90,` +
	`"equipment":["dumbbells"]}]}]}`

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	estimate := flag.Bool("estimate", false, "Attack the estimate endpoint instead of full generation")
	chaos := flag.Bool("chaos", false, "Simulate random client disconnections")
	failRate := flag.Int("failrate", 0, "Percent of mock model calls answered with 429/500")
	flag.Parse()

	go startMockServer(*failRate)

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	binPath, err := filepath.Abs("bin/server")
	if err != nil {
		log.Fatal(err)
	}

	// The server resolves config.yaml and the database relative to its
	// working directory, so a temp dir keeps the benchmark self-cleaning.
	workDir, err := os.MkdirTemp("", "personalfit-bench-")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(workDir)

	if err := os.WriteFile(filepath.Join(workDir, "config.yaml"), []byte(benchConfig(*failRate)), 0644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}

	fmt.Println("Starting application...")
	cmd := exec.Command(binPath)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "LOG_LEVEL=error", "LOG_COLOR=false")

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	done := make(chan struct{})

	go monitorResources(cmd.Process.Pid, done)

	endpoint := fmt.Sprintf("http://localhost:%d/api/v1/plans/generate", appPort)
	mode := "Generation"
	if *estimate {
		endpoint = fmt.Sprintf("http://localhost:%d/api/v1/plans/estimate", appPort)
		mode = "Estimation"
	}
	fmt.Printf("Running %s benchmark: %s duration, %d req/s\n", mode, *duration, *rate)

	body := `{"goal":"strength","difficulty":"beginner","days_per_week":3,` +
		`"session_minutes":45,"equipment":["dumbbells"],"model":"gpt-4o"}`

	targeter := func(t *vegeta.Target) error {
		t.Method = "POST"
		t.URL = endpoint
		t.Body = []byte(body)
		t.Header = http.Header{
			"Content-Type":      []string{"application/json"},
			"Authorization":     []string{"Bearer bench-key-12345"},
			"X-Benchmark-Start": []string{strconv.FormatInt(time.Now().UnixNano(), 10)},
		}
		return nil
	}

	if *chaos {
		fmt.Println("CHAOS MODE ENABLED: Starting Chaos Monkey sidecar...")
		chaosConcurrency := *rate / 10
		if chaosConcurrency < 5 {
			chaosConcurrency = 5
		}
		if chaosConcurrency > 50 {
			chaosConcurrency = 50
		}
		go startChaosMonkey(endpoint, chaosConcurrency, done)
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	close(done)

	printReport(&metrics)
}

func printReport(metrics *vegeta.Metrics) {
	fmt.Println("--------------------------------------------------")
	fmt.Printf("%-12s %v\n", "p50:", metrics.Latencies.P50)
	fmt.Printf("%-12s %v\n", "p99:", metrics.Latencies.P99)
	fmt.Printf("%-12s %v\n", "mean:", metrics.Latencies.Mean)
	fmt.Printf("%-12s %v\n", "max:", metrics.Latencies.Max)
	fmt.Printf("%-12s %.2f%%\n", "success:", metrics.Success*100)
	fmt.Printf("%-12s %.2f req/s\n", "throughput:", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	// vegeta already deduplicates; just cap the noise.
	if len(metrics.Errors) > 0 {
		fmt.Println("Distinct errors:")
		for i, msg := range metrics.Errors {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", len(metrics.Errors)-5)
				break
			}
			fmt.Println(" ", msg)
		}
	}
}

// startChaosMonkey floods the endpoint with clients that hang up after
// 1-200ms. Generation holds the provider call open far longer than
// that, so nearly every chaos request aborts mid-flight and the server
// has to unwind cleanly under the main attack.
func startChaosMonkey(url string, concurrency int, done chan struct{}) {
	fmt.Printf("Chaos sidecar: %d disrupters, hangup after 1-200ms\n", concurrency)

	payload := `{"goal":"endurance","difficulty":"intermediate","days_per_week":4,` +
		`"session_minutes":30,"model":"gpt-4o"}`

	for i := 0; i < concurrency; i++ {
		go func() {
			client := &http.Client{
				Transport: &http.Transport{
					MaxIdleConns:        100,
					MaxIdleConnsPerHost: 100,
				},
			}

			for {
				select {
				case <-done:
					return
				default:
				}

				hangup := time.Duration(rand.Intn(200)+1) * time.Millisecond
				ctx, cancel := context.WithTimeout(context.Background(), hangup)

				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer bench-key-12345")

				if resp, err := client.Do(req); err == nil {
					resp.Body.Close()
				}
				cancel()

				time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
			}
		}()
	}
}

func startMockServer(failRate int) {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"data": [
				{"id": "gpt-4o", "object": "model", "created": 1687882411, "owned_by": "openai"}
			]
		}`))
	})

	completion, _ := json.Marshal(map[string]interface{}{
		"id":    "bench-123",
		"model": "gpt-4o",
		"choices": []map[string]interface{}{
			{
				"message":       map[string]string{"role": "assistant", "content": planContent},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 850, "completion_tokens": 400},
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		startStr := r.Header.Get("X-Benchmark-Start")
		if startStr != "" {
			start, _ := strconv.ParseInt(startStr, 10, 64)
			latency := time.Now().UnixNano() - start
			// Sample 1% of requests to avoid console spam
			if rand.Intn(100) == 0 {
				fmt.Printf("DEBUG: Orchestration Overhead: %v\n", time.Duration(latency))
			}
		}

		time.Sleep(10 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")

		// Fault injection: a slice of calls fail with the two statuses
		// the retry ladder treats as transient.
		if failRate > 0 && rand.Intn(100) < failRate {
			status := http.StatusTooManyRequests
			if rand.Intn(2) == 0 {
				status = http.StatusInternalServerError
			}
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"injected failure","type":"benchmark"}}`))
			return
		}

		w.Write(completion)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func monitorResources(pid int, done chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	fmt.Println("\n--- Resource Usage (ps) ---")
	fmt.Printf("% -10s % -10s % -10s\n", "Time", "RSS(MB)", "CPU(%)")

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "rss=,%cpu=").Output()
			if err != nil {
				continue
			}
			fields := strings.Fields(strings.TrimSpace(string(out)))
			if len(fields) < 2 {
				continue
			}
			rssKB, _ := strconv.ParseFloat(fields[0], 64)
			cpu, _ := strconv.ParseFloat(fields[1], 64)

			fmt.Printf("% -10s % -10.2f % -10.2f\n",
				time.Now().Format("15:04:05"),
				rssKB/1024,
				cpu,
			)
		}
	}
}

func waitForApp(url string) {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(10 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	log.Fatal("Server never became healthy")
}

// benchConfig renders the server config for the run. With fault
// injection on, retries are enabled with short delays so the ladder
// engages without dominating the latency distribution.
func benchConfig(failRate int) string {
	maxRetries := 0
	if failRate > 0 {
		maxRetries = 2
	}
	return fmt.Sprintf(`
server:
  port: "%d"
  env: development
database:
  dsn: "bench.db"
rate_limit:
  requests_per_second: 100000
  burst: 100000
auth:
  enabled: true
  static_keys: ["bench-key-12345"]
logging:
  level: "error"
retry:
  max_retries: %d
  base_delay_ms: 50
  max_delay_ms: 400
  fallback_order: []
catalog:
  path: ""
  reload_cron: ""
maintenance:
  purge_cron: ""
providers:
  - id: openai
    type: openai
    name: OpenAI
    api_key: "mock-key"
    base_url: "http://localhost:%d/v1"
    enabled: true
routes:
  - pattern: "gpt-*"
    target_id: openai
`, appPort, maxRetries, mockPort)
}
