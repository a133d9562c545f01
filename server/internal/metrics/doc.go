// Package metrics counts store operations and renders them, together with the
// current number of todos, in the Prometheus text exposition format.
//
//	todos_operations_total{op="create",outcome="ok"} 3
//	todos_operations_total{op="create",outcome="conflict"} 1
//	todos_items 2
package metrics
