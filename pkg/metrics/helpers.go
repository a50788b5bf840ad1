package metrics

import (
	"time"
)

type RedisOperation string

const (
	RedisOpGet RedisOperation = "get"
	RedisOpSet RedisOperation = "set"
	RedisOpDel RedisOperation = "del"
)

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

func RecordRedisError(service string, op RedisOperation) {
	RedisErrors.WithLabelValues(service, string(op)).Inc()
}

func RecordKafkaMessageProduced(service, topic string) {
	KafkaMessagesProduced.WithLabelValues(service, topic).Inc()
}

func RecordKafkaMessageConsumed(service, topic, group string) {
	KafkaMessagesConsumed.WithLabelValues(service, topic, group).Inc()
}

func RecordKafkaError(service, topic, operation string) {
	KafkaErrors.WithLabelValues(service, topic, operation).Inc()
}

// RecordImportOutcome фиксирует исход обработки одной записи батча
func RecordImportOutcome(service, outcome string) {
	ImportRecordsTotal.WithLabelValues(service, outcome).Inc()
}

// RecordImageFetch фиксирует результат загрузки изображения товара
func RecordImageFetch(service string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	ImageFetchesTotal.WithLabelValues(service, result).Inc()
}

type DbOperation string

const (
	DbOpSelect DbOperation = "select"
	DbOpInsert DbOperation = "insert"
	DbOpUpdate DbOperation = "update"
	DbOpDelete DbOperation = "delete"
)

type DbTimer struct {
	service   string
	operation DbOperation
	table     string
	start     time.Time
}

func NewDbTimer(service string, op DbOperation, table string) *DbTimer {
	return &DbTimer{
		service:   service,
		operation: op,
		table:     table,
		start:     time.Now(),
	}
}

func (dt *DbTimer) ObserveDuration() {
	duration := time.Since(dt.start).Seconds()
	DbQueryDuration.WithLabelValues(dt.service, string(dt.operation), dt.table).Observe(duration)
}

func RecordDbError(service string, op DbOperation) {
	DbErrors.WithLabelValues(service, string(op)).Inc()
}

// BatchTimer измеряет длительность прогона импорта целиком
type BatchTimer struct {
	service string
	start   time.Time
}

func NewBatchTimer(service string) *BatchTimer {
	return &BatchTimer{service: service, start: time.Now()}
}

func (bt *BatchTimer) ObserveDuration() {
	ImportBatchDuration.WithLabelValues(bt.service).Observe(time.Since(bt.start).Seconds())
}
