package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mBatchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rmlstream_pipeline_batches_processed_total",
		Help: "Number of quad batches popped from the bounded channel by the writer.",
	})
	mQuadsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rmlstream_pipeline_quads_written_total",
		Help: "Number of quads written to the output after dedup.",
	})
	mQuadsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rmlstream_pipeline_quads_deduped_total",
		Help: "Number of quads discarded as duplicates.",
	})
	mQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rmlstream_pipeline_queue_depth",
		Help: "Number of batches currently buffered in the bounded channel.",
	})
)
