package redisx

import "time"

const (
	// Cached order with resolved products: shop:order:{order_id} -> JSON
	KeyOrder = "shop:order:%d"
)

var TTLOrder = 10 * time.Minute
