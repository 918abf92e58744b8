// Package main runs a one-shot copyvio check from the command line: an
// article text file against a list of candidate URLs, using a private pool.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/theassyrian/earwigbot/internal/copyvios"
	"github.com/theassyrian/earwigbot/internal/domains"
	"github.com/theassyrian/earwigbot/internal/extract"
	"github.com/theassyrian/earwigbot/internal/fetch"
	"github.com/theassyrian/earwigbot/internal/logging"
	"github.com/theassyrian/earwigbot/internal/markov"
)

func main() {
	articlePath := flag.String("article", "", "Path to the article text file")
	minConfidence := flag.Float64("min-confidence", 0.75, "Confidence threshold for early finish")
	maxTime := flag.Duration("max-time", 30*time.Second, "Overall check deadline")
	urlTimeout := flag.Duration("url-timeout", 5*time.Second, "Per-URL fetch timeout")
	workers := flag.Int("workers", copyvios.DefaultNumWorkers, "Worker count")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	urls := flag.Args()
	if *articlePath == "" || len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: copyviocheck -article FILE [flags] URL [URL...]")
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = logging.New(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
			os.Exit(1)
		}
	}

	text, err := os.ReadFile(*articlePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read article failed: %v\n", err)
		os.Exit(1)
	}

	model := markov.Model{}
	fetcher := fetch.New(fetch.Config{
		Extractor: extract.NewHTML(),
		UserAgent: "earwigbot-copyvios/0.1",
		Logger:    logger,
	})

	ws, err := copyvios.New(copyvios.Config{
		Model:         model,
		Article:       model.Build(string(text)),
		MinConfidence: *minConfidence,
		Until:         time.Now().Add(*maxTime),
		URLTimeout:    *urlTimeout,
		NumWorkers:    *workers,
		Fetcher:       fetcher,
		Classifier:    domains.PublicSuffix{},
		Logger:        logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start check failed: %v\n", err)
		os.Exit(1)
	}
	defer ws.Close()

	ws.Enqueue(urls, nil)
	ws.Wait()

	for _, src := range ws.Sources() {
		conf, completed := src.Result()
		state := "pending"
		if completed {
			state = "completed"
		} else if !src.Active() {
			state = "cancelled"
		}
		fmt.Printf("%-9s %.4f  %s\n", state, conf, src.URL)
	}

	best := ws.Best()
	if best.URL == "" {
		fmt.Println("no match found")
		return
	}
	fmt.Printf("best: %s (confidence %.4f)\n", best.URL, best.Confidence)
	if best.Confidence >= *minConfidence {
		fmt.Println("likely violation")
	}
}
