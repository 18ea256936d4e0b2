// Package internaldefs holds the shared metric name table used by the
// exporter packages. It exists so that every exporter emits identical metric
// names and bucket layouts without duplicating the list.
package internaldefs
