// Package decode converts loosely shaped JSON payloads into typed records
// using statically declared schema tables.
//
// A schema lists the fields of a record type, each with a canonical
// snake_case name, a target Type and a policy for absence (Required,
// Optional, Default). Decoding normalizes every raw key (camelCase,
// snake_case and kebab-case spellings collapse to one form), coerces the
// matching values, recurses into nested records and lists, and ignores
// keys the schema does not know about:
//
//	var PoolSchema = decode.NewSchema("Pool",
//		decode.Required("swimming_pool_id", decode.String, func(p *Pool) *string { return &p.ID }),
//		decode.Required("updated", decode.Timestamp, func(p *Pool) *time.Time { return &p.Updated }),
//	)
//
//	pool, err := decode.Decode(body, PoolSchema)
//
// Every failure is a *DecodeError whose Kind tells malformed JSON, type
// mismatches, bad timestamps, unknown enum values and missing fields apart.
package decode
