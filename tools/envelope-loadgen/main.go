// envelope-loadgen is a tiny, dependency-free HTTP load generator tailored
// for the offline transport demo. It reuses HTTP connections (keep-alive)
// and supports concurrency, so a demo script can push enough traffic to see
// queueing and backoff kick in without relying on external tools.
//
// Usage example:
//
//	envelope-loadgen -base=http://127.0.0.1:8080 -n=5000 -c=16 -size=512
//
// Notes:
//   - POSTs a fixed-size synthetic envelope body to /envelope on every
//     request; the body content is irrelevant to the demo, only its
//     presence and size are.
//   - Prints a one-line summary with duration, throughput, and a
//     breakdown of response status classes observed.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	var (
		base  = flag.String("base", "http://127.0.0.1:8080", "Base URL including scheme and host")
		path  = flag.String("path", "/envelope", "Request path")
		n     = flag.Int("n", 5000, "Total envelopes to send")
		conc  = flag.Int("c", 8, "Number of concurrent workers")
		size  = flag.Int("size", 512, "Synthetic envelope body size in bytes")
		delay = flag.Duration("delay", 0, "Fixed delay between a worker's requests (0 disables)")

		timeout    = flag.Duration("timeout", 60*time.Second, "Overall timeout for the loadgen run")
		connIdle   = flag.Duration("idle_timeout", 30*time.Second, "HTTP idle connection timeout")
		maxIdle    = flag.Int("max_idle", 256, "Max idle connections total")
		maxIdlePer = flag.Int("max_idle_per_host", 256, "Max idle connections per host")
	)
	flag.Parse()

	if *n <= 0 || *conc <= 0 {
		fmt.Fprintln(os.Stderr, "-n and -c must be > 0")
		os.Exit(2)
	}

	baseURL := strings.TrimRight(*base, "/")
	p := *path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	fullURL := baseURL + p

	body := bytes.Repeat([]byte("x"), *size)

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        *maxIdle,
		MaxIdleConnsPerHost: *maxIdlePer,
		IdleConnTimeout:     *connIdle,
	}
	client := &http.Client{Transport: tr, Timeout: 10 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	var accepted, clientErr, serverErr, netErr int64

	worker := func(count int) {
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/x-sentry-envelope")
			resp, err := client.Do(req)
			if err != nil {
				atomic.AddInt64(&netErr, 1)
				time.Sleep(200 * time.Microsecond)
				continue
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			switch {
			case resp.StatusCode >= 500:
				atomic.AddInt64(&serverErr, 1)
			case resp.StatusCode >= 400:
				atomic.AddInt64(&clientErr, 1)
			default:
				atomic.AddInt64(&accepted, 1)
			}
			if *delay > 0 {
				time.Sleep(*delay)
			}
		}
	}

	per := *n / *conc
	rem := *n - per**conc
	var wg sync.WaitGroup
	wg.Add(*conc)
	for w := 0; w < *conc; w++ {
		count := per
		if w == *conc-1 {
			count += rem
		}
		go func(count int) {
			defer wg.Done()
			worker(count)
		}(count)
	}
	wg.Wait()

	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	ops := float64(*n) / elapsed.Seconds()
	fmt.Printf("EnvelopeLoadGen: N=%d c=%d go=%d Duration=%s Throughput=%.0f req/s accepted=%d client_err=%d server_err=%d net_err=%d\n",
		*n, *conc, runtime.GOMAXPROCS(0), elapsed.Truncate(time.Millisecond), ops, accepted, clientErr, serverErr, netErr)
}
