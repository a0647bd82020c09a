// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by pipeline spans.
const (
	ChannelCategoryKey = "channel.category"
	ChannelHandleKey   = "channel.handle"
	WatchIDKey         = "broadcast.watch_id"
	StrategyNameKey    = "strategy.name"
	StrategyResultKey  = "strategy.result"
	StreamKindKey      = "stream.kind"
	RunIDKey           = "run.id"
)

// ChannelAttributes describes the channel a span works on.
func ChannelAttributes(category, handle string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ChannelCategoryKey, category),
		attribute.String(ChannelHandleKey, handle),
	}
}

// StrategyAttributes describes one strategy outcome, used as a span event.
func StrategyAttributes(name, result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StrategyNameKey, name),
		attribute.String(StrategyResultKey, result),
	}
}
