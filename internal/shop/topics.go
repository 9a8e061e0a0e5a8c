package shop

import "strconv"

const TopicOrderCreated = "shop.order.created"

// Partition key = order id, so every event of one order keeps its ordering.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
