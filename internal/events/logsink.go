package events

import (
	"encoding/json"
	"time"
)

// Logger matches the stdlib log.Logger surface used across the service.
type Logger interface {
	Printf(format string, v ...any)
}

// LogSink writes each notification as a JSON line.
type LogSink struct {
	logger Logger
}

func NewLogSink(logger Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) emit(event string, fields map[string]any) {
	payload := map[string]any{
		"event": event,
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Printf("event_marshal_error: %v", err)
		return
	}
	s.logger.Printf("%s", data)
}

func (s *LogSink) StakeAdded(account, packageName string, amount int64, index int) {
	s.emit("stake_added", map[string]any{
		"account": account, "package": packageName, "amount": amount, "index": index,
	})
}

func (s *LogSink) StakeWithdrawn(account string, index int, paid int64) {
	s.emit("stake_withdrawn", map[string]any{
		"account": account, "index": index, "paid": paid,
	})
}

func (s *LogSink) Released(beneficiary string, amount int64) {
	s.emit("vesting_released", map[string]any{
		"beneficiary": beneficiary, "amount": amount,
	})
}

func (s *LogSink) Revoked(owner, refundTo string, refunded int64) {
	s.emit("vesting_revoked", map[string]any{
		"owner": owner, "refund_to": refundTo, "refunded": refunded,
	})
}
