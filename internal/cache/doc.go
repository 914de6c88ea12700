// Package cache holds the client-side mirror of one server-owned collection.
//
// An [Entity] is a JSON-object-shaped record identified by its "id" field.
// A [Collection] is the ordered container of entities for one endpoint. The
// container is created once and only ever mutated in place: existing
// entities are merged into rather than replaced, so references held by
// observers stay valid across updates.
//
// Identifier comparison is deliberately loose: ids are normalised to their
// string form before comparison, so 42, 42.0 and "42" address the same
// entity. See [Key].
package cache
