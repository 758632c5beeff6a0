// Package audit defines the decision audit trail: the record written for
// every policy evaluation, the query model over those records, and the
// Storage interface the backends implement.
//
// Recording is asynchronous (see the recorder subpackage) so enforcement
// latency never depends on storage latency. Backends live in the storage
// subpackage; retention enforcement in the retention subpackage.
package audit
