package pdf

import (
	"context"
	"sync"
)

// DefaultConcurrency keeps gateway calls sequential unless configured otherwise
const DefaultConcurrency = 1

// BatchTranslator 负责把一页的文本批量送入翻译网关
// Up to concurrency calls are in flight; results come back in input order.
type BatchTranslator struct {
	gateway     *TranslationGateway
	concurrency int
}

// NewBatchTranslator creates a new BatchTranslator over gateway
func NewBatchTranslator(gateway *TranslationGateway, concurrency int) *BatchTranslator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &BatchTranslator{gateway: gateway, concurrency: concurrency}
}

// GetConcurrency returns the configured concurrency level
func (b *BatchTranslator) GetConcurrency() int {
	return b.concurrency
}

// TranslateBatch 批量翻译文本
// The result has one entry per input text, at the same index. Identical texts are
// sent once per batch.
func (b *BatchTranslator) TranslateBatch(ctx context.Context, texts []string, source, target string) []GatewayResult {
	results := make([]GatewayResult, len(texts))
	if len(texts) == 0 {
		return results
	}

	// Deduplicate so repeated headers in one page cost a single call
	unique := make([]string, 0, len(texts))
	slot := make(map[string]int, len(texts))
	for _, t := range texts {
		if _, ok := slot[t]; !ok {
			slot[t] = len(unique)
			unique = append(unique, t)
		}
	}

	uniqueResults := make([]GatewayResult, len(unique))
	if b.concurrency == 1 || len(unique) == 1 {
		for i, t := range unique {
			uniqueResults[i] = b.gateway.TranslateRun(ctx, t, source, target)
		}
	} else {
		// Use semaphore for concurrency control
		sem := make(chan struct{}, b.concurrency)
		var wg sync.WaitGroup

		for i, t := range unique {
			wg.Add(1)
			go func(idx int, text string) {
				defer wg.Done()

				sem <- struct{}{}
				defer func() { <-sem }()

				// each goroutine owns its slot
				uniqueResults[idx] = b.gateway.TranslateRun(ctx, text, source, target)
			}(i, t)
		}
		wg.Wait()
	}

	for i, t := range texts {
		results[i] = uniqueResults[slot[t]]
	}
	return results
}
