package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog"
)

const (
	DefaultIndex = "spendsight"

	esFlushBytes = 2048
	esMaxRetries = 5

	envEsAddr = "ELASTICSEARCH_SERVICE_HOST"
	envEsPort = "ELASTICSEARCH_SERVICE_PORT"
)

// Elasticsearch bulk-indexes documents into one index.
type Elasticsearch struct {
	index     string
	addresses []string
	log       zerolog.Logger
}

// NewElasticsearch targets the given node URLs. With no URLs it falls back
// to ELASTICSEARCH_SERVICE_HOST/PORT, then localhost:9200.
func NewElasticsearch(index string, log zerolog.Logger, urls ...string) *Elasticsearch {
	if index == "" {
		index = DefaultIndex
	}
	if len(urls) == 0 {
		address := os.Getenv(envEsAddr)
		port := os.Getenv(envEsPort)
		if port == "" {
			port = "9200"
		}
		if address == "" {
			address = "localhost"
		}
		urls = []string{fmt.Sprintf("http://%s:%s", address, port)}
	}
	return &Elasticsearch{index: index, addresses: urls, log: log}
}

func (e *Elasticsearch) Write(ctx context.Context, docs []Document) error {
	retryBackoff := backoff.NewExponentialBackOff()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     e.addresses,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: esMaxRetries,
	})
	if err != nil {
		return fmt.Errorf("creating elasticsearch client: %w", err)
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         e.index,
		FlushBytes:    esFlushBytes,
		Client:        es,
		NumWorkers:    4,
		FlushInterval: 10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("creating bulk indexer: %w", err)
	}

	// Already-exists is the common case and not an error for us.
	if res, err := es.Indices.Create(e.index, es.Indices.Create.WithContext(ctx)); err != nil {
		e.log.Debug().Err(err).Str("index", e.index).Msg("export.create_index")
	} else {
		res.Body.Close()
	}

	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshaling document %s: %w", d.ID, err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: d.ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				ev := e.log.Warn().Str("id", item.DocumentID)
				if err != nil {
					ev.Err(err).Msg("export.failed")
					return
				}
				ev.Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("export.failed")
			},
		})
		if err != nil {
			return fmt.Errorf("queueing document %s: %w", d.ID, err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("flushing bulk indexer: %w", err)
	}

	stats := bi.Stats()
	if stats.NumFailed > 0 {
		return fmt.Errorf("failed indexing %d of %d docs", stats.NumFailed, stats.NumAdded)
	}
	e.log.Info().Str("index", e.index).Uint64("indexed", stats.NumFlushed).Msg("export.done")
	return nil
}
