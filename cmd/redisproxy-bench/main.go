// redisproxy-bench - load generator that drives a store through the proxy
//
// Usage:
//
//	redisproxy-bench [flags]
//
// Flags:
//
//	-host string      Store host (default "localhost")
//	-port int         Store port (default 6379)
//	-clients int      Number of parallel clients (default 50)
//	-requests int     Total number of requests (default 100000)
//	-retry int        Resends after a transport failure (default 1)
//	-timeout-ms int   Read/write timeout in milliseconds (default 2000)
//	-test string      Test type: set,get,mixed,incr (default "mixed")
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flashdb/redisproxy/internal/config"
	"github.com/flashdb/redisproxy/internal/tally"
	"github.com/flashdb/redisproxy/internal/version"
	"github.com/flashdb/redisproxy/pkg/proxy"
)

// result is the outcome of one benchmark run.
type result struct {
	Elapsed   time.Duration
	Completed int64
	Errors    int64
	Outcomes  []tally.Entry
}

func main() {
	host := flag.String("host", "localhost", "Store host")
	port := flag.Int("port", 6379, "Store port")
	clients := flag.Int("clients", 50, "Number of parallel clients")
	requests := flag.Int("requests", 100000, "Total number of requests")
	retry := flag.Uint("retry", proxy.DefaultRetryCount, "Resends after a transport failure")
	timeoutMS := flag.Int64("timeout-ms", proxy.DefaultTimeout.Milliseconds(), "Read/write timeout in milliseconds")
	testType := flag.String("test", "mixed", "Test type: set,get,mixed,incr")
	flag.Parse()

	if *clients <= 0 || *requests <= 0 {
		fmt.Fprintln(os.Stderr, "clients and requests must be positive")
		os.Exit(2)
	}

	cfg := config.DefaultConfig()
	cfg.LogLevel = "warn"
	base := proxy.NewWithConfig(proxy.Config{
		RetryCount: *retry,
		Timeout:    time.Duration(*timeoutMS) * time.Millisecond,
		Logger:     cfg.NewLogger(),
	})
	if err := base.Connect(*host, *port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer base.Close()

	fmt.Printf("====== %s Benchmark ======\n", version.String("redisproxy-bench"))
	fmt.Printf("Server: %s:%d\n", *host, *port)
	fmt.Printf("Clients: %d\n", *clients)
	fmt.Printf("Requests: %d\n", *requests)
	fmt.Printf("Retry: %d\n", *retry)
	fmt.Printf("Test: %s\n", *testType)
	fmt.Println()

	res := runBench(base, *clients, *requests, *testType)

	fmt.Println("====== Results ======")
	fmt.Printf("Total time: %v\n", res.Elapsed)
	fmt.Printf("Completed: %d\n", res.Completed)
	fmt.Printf("Errors: %d\n", res.Errors)
	if res.Completed > 0 {
		fmt.Printf("Requests/sec: %.2f\n", float64(res.Completed)/res.Elapsed.Seconds())
		fmt.Printf("Avg latency: %.3f ms\n", float64(res.Elapsed.Milliseconds())/float64(res.Completed)*float64(*clients))
	}
	fmt.Println()
	fmt.Println("====== Outcomes ======")
	for _, e := range res.Outcomes {
		fmt.Printf("%-24s %d\n", e.Label, e.Count)
	}
}

// runBench spreads requests over clients goroutines, each on its own
// duplicate of base.
func runBench(base *proxy.Proxy, clients, requests int, testType string) result {
	var completed, errors atomic.Int64
	outcomes := tally.New()
	reqPerClient := requests / clients

	start := time.Now()
	var wg sync.WaitGroup

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()

			p, err := base.Duplicate()
			if err != nil {
				errors.Add(int64(reqPerClient))
				outcomes.Add("DUPLICATE ERR")
				return
			}
			defer p.Close()

			for j := 0; j < reqPerClient; j++ {
				label, ok := step(p, testType, clientID, j)
				outcomes.Add(label)
				if ok {
					completed.Add(1)
				} else {
					errors.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()
	return result{
		Elapsed:   time.Since(start),
		Completed: completed.Load(),
		Errors:    errors.Load(),
		Outcomes:  outcomes.Top(0),
	}
}

// step runs request j of one client. It returns an "OP OUTCOME" label and
// whether the request succeeded. A get of a key that was never set still
// counts as success.
func step(p *proxy.Proxy, testType string, clientID, j int) (string, bool) {
	key := fmt.Sprintf("key:%d:%d", clientID, j)
	value := []byte(fmt.Sprintf("value:%d:%d", clientID, j))

	switch testType {
	case "set":
		status := p.Set(key, value)
		return "SET " + status.String(), status == proxy.StatusOK
	case "get":
		_, outcome := p.Get(key)
		return "GET " + outcome.String(), outcome == proxy.LookupOK || outcome == proxy.LookupNotFound
	case "mixed":
		if j%2 == 0 {
			status := p.Set(key, value)
			return "SET " + status.String(), status == proxy.StatusOK
		}
		// read back the key written on the previous step
		_, outcome := p.Get(fmt.Sprintf("key:%d:%d", clientID, j-1))
		return "GET " + outcome.String(), outcome == proxy.LookupOK
	case "incr":
		_, status := p.Incr(fmt.Sprintf("counter:%d", clientID))
		return "INCR " + status.String(), status == proxy.StatusOK
	default:
		if p.IsAlive() {
			return "PING OK", true
		}
		return "PING ERR", false
	}
}
