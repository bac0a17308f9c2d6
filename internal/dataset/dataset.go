// Package dataset loads training corpora for the classifier: plain
// domain lists, labeled CSVs, and Tranco-style ranked lists, either from
// local files or fetched over HTTP.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Corpus is a labeled set of domains (labels: 0 benign, 1 dga) in load
// order. Shuffling is the trainer's job.
type Corpus struct {
	Domains []string
	Labels  []int
}

// Len returns the number of samples.
func (c *Corpus) Len() int { return len(c.Domains) }

// Append adds every domain of a list under one label.
func (c *Corpus) Append(domains []string, label int) {
	for _, d := range domains {
		c.Domains = append(c.Domains, d)
		c.Labels = append(c.Labels, label)
	}
}

// LoadDomainList reads one domain per line, skipping blanks and
// #-comments.
func LoadDomainList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domain list %s: %w", path, err)
	}
	defer file.Close()

	domains, err := readDomainList(file)
	if err != nil {
		return nil, fmt.Errorf("scan domain list %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("count", len(domains)).Msg("loaded domain list")
	return domains, nil
}

func readDomainList(r io.Reader) ([]string, error) {
	var domains []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	return domains, scanner.Err()
}

// LoadRankedList reads a Tranco-style CSV ("rank,domain"), keeping at
// most topN entries when topN > 0. Quotes around domains are stripped.
func LoadRankedList(path string, topN int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ranked list %s: %w", path, err)
	}
	defer file.Close()

	domains, err := readRankedList(file, topN)
	if err != nil {
		return nil, fmt.Errorf("scan ranked list %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("count", len(domains)).Int("top_n", topN).Msg("loaded ranked list")
	return domains, nil
}

func readRankedList(r io.Reader, topN int) ([]string, error) {
	var domains []string
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ",")
		if len(parts) < 2 {
			continue
		}

		domain := strings.TrimSpace(parts[1])
		domain = strings.Trim(domain, "\"")
		domain = strings.Trim(domain, "'")
		if domain == "" {
			continue
		}

		domains = append(domains, domain)
		if topN > 0 && len(domains) >= topN {
			break
		}
	}
	return domains, scanner.Err()
}
